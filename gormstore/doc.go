// Package gormstore implements the verikit store collaborators on a
// relational database through GORM. Config values live in two tables
// (global and per-tenant), permission bitsets in one table keyed by the
// scope triple; all writes are upserts.
package gormstore
