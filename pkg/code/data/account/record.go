package account

import (
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

type Record struct {
	Address string

	Owner      string
	Lamports   uint64
	Data       []byte
	Executable bool

	// Slot is the runtime slot of the batch that last wrote the account.
	Slot          uint64
	LastUpdatedAt time.Time
}

func (r *Record) Clone() Record {
	var data []byte
	if len(r.Data) > 0 {
		data = make([]byte, len(r.Data))
		copy(data, r.Data)
	}

	return Record{
		Address:       r.Address,
		Owner:         r.Owner,
		Lamports:      r.Lamports,
		Data:          data,
		Executable:    r.Executable,
		Slot:          r.Slot,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Address = r.Address
	dst.Owner = r.Owner
	dst.Lamports = r.Lamports
	dst.Data = r.Data
	dst.Executable = r.Executable
	dst.Slot = r.Slot
	dst.LastUpdatedAt = r.LastUpdatedAt
}

func (r *Record) Validate() error {
	if err := validateAddress(r.Address); err != nil {
		return errors.Wrap(err, "invalid address")
	}

	if err := validateAddress(r.Owner); err != nil {
		return errors.Wrap(err, "invalid owner")
	}

	if r.Lamports == 0 {
		return errors.New("lamports are required")
	}

	return nil
}

func validateAddress(address string) error {
	if len(address) == 0 {
		return errors.New("address is required")
	}

	decoded, err := base58.Decode(address)
	if err != nil {
		return err
	}
	if len(decoded) != 32 {
		return errors.Errorf("address length is %d", len(decoded))
	}
	return nil
}
