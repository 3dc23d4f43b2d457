package config

import "errors"

// ErrInvalidConfig marks a loaded configuration that fails Validate.
var ErrInvalidConfig = errors.New("placement config: invalid value")

// ErrLoadConfig marks a failure to read the YAML file or the PLACEMENT_ env.
var ErrLoadConfig = errors.New("placement config: load failed")
