package mysql

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds MySQL-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Charset for the connection, e.g. utf8mb4.
	Charset string `mapstructure:"charset"`

	// Timeout for establishing connections.
	Timeout time.Duration `mapstructure:"timeout"`

	// TLS is the driver's tls parameter: "true", "skip-verify", "preferred".
	TLS string `mapstructure:"tls"`
}

// ParseParams decodes raw adapter params.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid mysql params: %w", err)
	}
	return p, nil
}
