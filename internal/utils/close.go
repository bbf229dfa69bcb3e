package utils

import (
	"errors"
	"io"
)

// CloseAll closes every c in reverse order and joins the errors.
// Nil closers are skipped so partially built resources can be passed as is.
func CloseAll(cs ...io.Closer) error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		if cs[i] == nil {
			continue
		}
		errs = append(errs, cs[i].Close())
	}
	return errors.Join(errs...)
}
