package verikit

import "context"

// keyData is the type-erased record behind a [ConfigKey]. The registry of
// key records is closed at package init; nothing constructs keys at runtime.
type keyData struct {
	name       string
	defaultNew func() any
	changeHook func(ctx context.Context, core *Core, scope ConfigScope, value any) error
}

// keyRegistry maps persistence names to their key records. Populated by
// newKey during package initialization and immutable afterwards.
var keyRegistry = make(map[string]*keyData)

// ConfigKey is an opaque, copyable handle to one registered configuration
// key. The type parameter fixes the value type the key is stored and read
// back as; the registry guarantees a name is never bound to two types.
type ConfigKey[T any] struct {
	data *keyData
}

// Name returns the key's persistence name.
func (k ConfigKey[T]) Name() string {
	return k.data.name
}

func (k ConfigKey[T]) defaultValue() T {
	return k.data.defaultNew().(T)
}

// onChange attaches the key's change-hook. Hooks that call back into
// [Core] methods are attached from init rather than the var block, since
// those methods name the keys they read.
func (k ConfigKey[T]) onChange(hook func(ctx context.Context, core *Core, scope ConfigScope, value T) error) {
	if k.data.changeHook != nil {
		panic("verikit: change hook registered twice: " + k.data.name)
	}
	k.data.changeHook = func(ctx context.Context, core *Core, scope ConfigScope, value any) error {
		return hook(ctx, core, scope, value.(T))
	}
}

func newKey[T any](
	name string,
	defaultNew func() T,
	hook func(ctx context.Context, core *Core, scope ConfigScope, value T) error,
) ConfigKey[T] {
	if name == "" {
		panic("verikit: config key with empty name")
	}
	if _, dup := keyRegistry[name]; dup {
		panic("verikit: config key registered twice: " + name)
	}

	d := &keyData{
		name:       name,
		defaultNew: func() any { return defaultNew() },
	}
	if hook != nil {
		d.changeHook = func(ctx context.Context, core *Core, scope ConfigScope, value any) error {
			return hook(ctx, core, scope, value.(T))
		}
	}
	keyRegistry[name] = d
	return ConfigKey[T]{data: d}
}

// The configuration keys. Persistence names are part of the stored format.
var (
	// KeyCommandPrefix is the prefix that commands on the chat network must start with.
	KeyCommandPrefix = newKey("CommandPrefix", func() string { return "!" }, nil)

	// KeyPlatformToken is the credential used to connect to the chat network. Empty means unset.
	KeyPlatformToken = newKey("PlatformToken", func() string { return "" }, nil)

	// KeyTokenValiditySeconds is how long issued verification tokens stay
	// valid. Changing it re-keys the verification token signer; the hook
	// is attached in init below.
	KeyTokenValiditySeconds = newKey[int]("TokenValiditySeconds", func() int { return 300 }, nil)

	// KeyReverificationTimeout is the cooldown, in seconds, before a user may reverify.
	KeyReverificationTimeout = newKey("ReverificationTimeout", func() uint64 { return 600 }, nil)

	// KeyVerificationAttemptLimit caps verification attempts per user per cooldown window.
	KeyVerificationAttemptLimit = newKey("VerificationAttemptLimit", func() int { return 10 }, nil)
)

func init() {
	KeyTokenValiditySeconds.onChange(func(ctx context.Context, core *Core, _ ConfigScope, _ int) error {
		return core.Rekey(ctx, false)
	})
}
