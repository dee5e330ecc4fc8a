package notify

import (
	"context"
	"errors"
)

// Fanout dispatches to every backend and joins their errors. One failing
// backend does not stop the others.
type Fanout []Dispatcher

func (f Fanout) Dispatch(ctx context.Context, n Notification) error {
	var errs []error
	for _, d := range f {
		if d == nil {
			continue
		}
		if err := d.Dispatch(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Only restricts a dispatcher to the given kinds. Other kinds are dropped.
func Only(d Dispatcher, kinds ...Kind) Dispatcher {
	return DispatcherFunc(func(ctx context.Context, n Notification) error {
		for _, k := range kinds {
			if n.Kind == k {
				return d.Dispatch(ctx, n)
			}
		}
		return nil
	})
}
