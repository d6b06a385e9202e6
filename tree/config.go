package tree

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/npillmayer/laytree/worker"
)

// ErrConfig is returned for an invalid configuration.
var ErrConfig = errors.New("invalid layout tree configuration")

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// fileConfig is the TOML representation of tree options.
type fileConfig struct {
	QueueLimit *int   `toml:"queue_limit"`
	Overflow   string `toml:"overflow"`
	TraceLevel string `toml:"trace_level"`
}

// LoadConfig reads tree options from TOML. Recognized keys are
//
//     queue_limit = 64          # bound for pending worker requests, 0 = unbounded
//     overflow    = "reject"    # or "block"
//     trace_level = "info"      # "debug", "info" or "error"
//
// Missing keys leave the defaults untouched. Unknown keys are an error.
func LoadConfig(r io.Reader) ([]Option, error) {
	var fc fileConfig
	md, err := toml.NewDecoder(r).Decode(&fc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, configError("unknown keys %s", strings.Join(keys, ", "))
	}
	var opts []Option
	if fc.QueueLimit != nil {
		if *fc.QueueLimit < 0 {
			return nil, configError("queue_limit must not be negative, is %d", *fc.QueueLimit)
		}
		opts = append(opts, QueueLimit(*fc.QueueLimit))
	}
	switch fc.Overflow {
	case "":
	case "block":
		opts = append(opts, Overflow(worker.Block))
	case "reject":
		opts = append(opts, Overflow(worker.Reject))
	default:
		return nil, configError("unknown overflow policy %q", fc.Overflow)
	}
	switch fc.TraceLevel {
	case "":
	case "debug", "info", "error":
		opts = append(opts, TraceLevel(fc.TraceLevel))
	default:
		return nil, configError("unknown trace level %q", fc.TraceLevel)
	}
	tracer().Debugf("config: %d options loaded", len(opts))
	return opts, nil
}
