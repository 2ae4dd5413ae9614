// Package token issues and verifies the short-lived verification tokens
// handed to users during account verification. Tokens are HS256 JWTs
// signed with an in-memory key that can be rotated at runtime; rotation
// invalidates every outstanding token at once.
package token
