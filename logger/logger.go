package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global logger instance
	Logger *zap.SugaredLogger
	// Flag to track if JSON output is enabled
	JSONOutput bool
)

func init() {
	// Safe no-op logger until Initialize is called
	Logger = zap.NewNop().Sugar()
}

// Options controls how the global logger is built.
type Options struct {
	JSON      bool
	Verbosity int
	// Debug lowers the floor to debug regardless of verbosity (non-production environments)
	Debug bool
	// Output defaults to stderr so command output on stdout stays clean
	Output io.Writer
}

// Initialize sets up the global logger based on the JSON output preference
func Initialize(jsonOutput bool) error {
	return InitializeWithOptions(Options{JSON: jsonOutput, Verbosity: VerbosityInfo})
}

// InitializeWithOptions sets up the global logger from CLI and config settings
func InitializeWithOptions(opts Options) error {
	JSONOutput = opts.JSON

	level := VerbosityToLevel(opts.Verbosity)
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	var zapLogger *zap.Logger
	var err error

	if opts.JSON && opts.Output == nil {
		// JSON structured output for machine consumption
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		zapLogger, err = config.Build()
	} else {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		var encoder zapcore.Encoder = newMinimalEncoder()
		if opts.JSON {
			encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		}
		zapLogger = zap.New(zapcore.NewCore(encoder, zapcore.AddSync(out), level))
	}

	if err != nil {
		return err
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
