package registrar

import "github.com/ruteri/ans-registry/interfaces"

// Config holds the economic parameters of a registrar deployment.
type Config struct {
	// MinRegistrationDuration is the shortest lease in milliseconds.
	MinRegistrationDuration uint64
	// RentPrice is charged per millisecond of lease.
	RentPrice uint64
	// RecordDeposit is locked in every record and refunded on removal.
	RecordDeposit uint64
	// DefaultResolver is set on records created by the primary registrar.
	DefaultResolver interfaces.ContractID
}

const (
	DefaultMinRegistrationDuration uint64 = 30 * 24 * 3600 * 1000
	DefaultRentPrice               uint64 = 1000
	DefaultRecordDeposit           uint64 = 1_000_000_000_000_000_000
)

func DefaultConfig() Config {
	return Config{
		MinRegistrationDuration: DefaultMinRegistrationDuration,
		RentPrice:               DefaultRentPrice,
		RecordDeposit:           DefaultRecordDeposit,
	}
}
