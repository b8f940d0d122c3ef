package programmer

// Config holds the engine configuration.
type Config struct {
	// ProgressCallback is called during transfers to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Verify enables readback verification after every write
	Verify bool

	// ReadBufferSize is the pull size for ranged reads
	ReadBufferSize int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Verify:         true,
		ReadBufferSize: 256,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	prog := programmer.New(lnk,
//	    programmer.WithProgressCallback(func(p programmer.Progress) {
//	        fmt.Printf("[%s] %.0f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for engine operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithVerify enables or disables readback verification after writes.
// Default is true; disabling it trades the only correctness guarantee the
// protocol offers for half the transfer time.
func WithVerify(verify bool) Option {
	return func(c *Config) {
		c.Verify = verify
	}
}

// WithReadBufferSize sets the pull size for ranged reads.
func WithReadBufferSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.ReadBufferSize = size
		}
	}
}
