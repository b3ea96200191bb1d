package cascade

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Delay is a step delay that accepts both duration strings ("5m", "1h30m")
// and plain numbers of seconds in YAML and JSON, so cascade configs written
// by hand and configs round-tripped through the task queue both decode.
type Delay struct {
	time.Duration
}

// DelayOf wraps a duration for building configs in code.
func DelayOf(d time.Duration) *Delay {
	return &Delay{Duration: d}
}

func (d *Delay) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return d.decode(raw)
}

func (d *Delay) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.decode(raw)
}

func (d Delay) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Delay) decode(raw any) error {
	switch v := raw.(type) {
	case string:
		if seconds, err := strconv.ParseFloat(v, 64); err == nil {
			return d.fromSeconds(seconds)
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid delay %q: %w", v, err)
		}
		if parsed < 0 {
			return fmt.Errorf("invalid delay %q: must not be negative", v)
		}
		d.Duration = parsed
		return nil
	case int:
		return d.fromSeconds(float64(v))
	case int64:
		return d.fromSeconds(float64(v))
	case float64:
		return d.fromSeconds(v)
	default:
		return fmt.Errorf("invalid delay: expected duration string or seconds, got %T", raw)
	}
}

func (d *Delay) fromSeconds(seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("invalid delay %v: must not be negative", seconds)
	}
	d.Duration = time.Duration(seconds * float64(time.Second))
	return nil
}

// Step is one entry of a cascade config: which optional channel to try, how
// long after the previous step, and the channel-specific options.
type Step struct {
	Target  string         `json:"target" yaml:"target"`
	Delay   *Delay         `json:"delay,omitempty" yaml:"delay,omitempty"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Config is an ordered list of cascade steps.
type Config []Step

// ParseConfigYAML decodes a cascade config from YAML:
//
//	- target: slack
//	  delay: 5m
//	- target: sms
//	  delay: 600
//	  options:
//	    urgent: true
func ParseConfigYAML(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate checks the whole config and collects every violation instead of
// stopping at the first one, so a bad config is fixable in one round trip.
func (c Config) Validate() error {
	var violations []string
	if len(c) == 0 {
		violations = append(violations, "cascade config cannot be empty")
	}
	for i, step := range c {
		if step.Target == "" {
			violations = append(violations, fmt.Sprintf("step %d: missing target", i))
		}
		if step.Delay == nil {
			violations = append(violations, fmt.Sprintf("step %d: missing delay", i))
		} else if step.Delay.Duration < 0 {
			violations = append(violations, fmt.Sprintf("step %d: delay must not be negative", i))
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(violations, "; "))
}
