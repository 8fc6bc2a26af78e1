package observability

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// register adds c to reg. If an equivalent collector is already present it is
// returned in place of c, so a second SimCollector or CatalogCollector built
// on the same registry shares the series of the first.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, name string) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var zero C
	var dup prometheus.AlreadyRegisteredError
	if !errors.As(err, &dup) {
		return zero, fmt.Errorf("register %s: %w", name, err)
	}
	existing, ok := dup.ExistingCollector.(C)
	if !ok {
		return zero, fmt.Errorf("register %s: already registered as %T", name, dup.ExistingCollector)
	}
	return existing, nil
}
