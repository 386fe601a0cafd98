package accessor

const defaultName = "accessor"

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// Options tune logging and instrumentation of a cache. All fields are optional.
type Options struct {
	Name   string // label for logs and hooks; "" => "accessor"
	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks
}

// Option mutates Options; pass them to NewCached / NewAsyncCached.
type Option func(*Options)

func WithName(name string) Option { return func(o *Options) { o.Name = name } }

func WithLogger(l Logger) Option { return func(o *Options) { o.Logger = l } }

func WithHooks(h Hooks) Option { return func(o *Options) { o.Hooks = h } }

// WithOptions copies a prepared Options value, e.g. one shared by several caches.
func WithOptions(src Options) Option { return func(o *Options) { *o = src } }

func buildOptions(opts []Option) Options {
	var o Options
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	o.Name = coalesce(o.Name, defaultName)
	// interfaces may hold non-comparable dynamic types, so no coalesce here
	if o.Logger == nil {
		o.Logger = NopLogger{}
	}
	if o.Hooks == nil {
		o.Hooks = NopHooks{}
	}
	return o
}
