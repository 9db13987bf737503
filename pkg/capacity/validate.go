package capacity

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyName       = errors.New("name must not be empty")
	ErrNotNumeric      = errors.New("value is not a number")
	ErrInvalidMemory   = errors.New("total memory must be greater than zero")
	ErrNegativeUsage   = errors.New("memory usage must not be negative")
	ErrExceedsCapacity = errors.New("memory usage exceeds available gpu memory")
	ErrUnknownGpu      = errors.New("gpu not found")
	ErrUnknownTask     = errors.New("task not found")
	ErrNoScheme        = errors.New("no current scheme")
)

// ParseMemory reads a user supplied amount in GB
func ParseMemory(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrNotNumeric, "%q", raw)
	}
	return v, nil
}

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}

func ValidateGpu(name string, totalMemory float64) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if !(totalMemory > 0) || math.IsInf(totalMemory, 0) {
		return errors.Wrapf(ErrInvalidMemory, "got %v", totalMemory)
	}
	return nil
}

func ValidateUsage(memoryUsage float64) error {
	if math.IsNaN(memoryUsage) || math.IsInf(memoryUsage, 0) {
		return errors.Wrapf(ErrNotNumeric, "got %v", memoryUsage)
	}
	if memoryUsage < 0 {
		return errors.Wrapf(ErrNegativeUsage, "got %v", memoryUsage)
	}
	return nil
}
