package repository

import (
	"errors"

	"github.com/placementcell/eligibility/internal/domain/model"
)

// Sentinel kinds for repository errors.
var (
	ErrClosed        = errors.New("store closed")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// storageErr tags err as a storage failure unless it is already classified.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if model.KindOf(err) != nil {
		return err
	}
	return model.WrapKind(op, model.ErrStorage, err)
}
