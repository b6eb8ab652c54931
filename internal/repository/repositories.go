package repository

// Repositories bundles the dev server's stores.
type Repositories struct {
	Users         UserRepository
	Organisations RecordRepository
	Projects      RecordRepository
	Funding       RecordRepository
	Reports       RecordRepository
	Distributions RecordRepository
	Verifications RecordRepository
	Audit         RecordRepository
}

// NewMemory returns empty in-memory repositories.
func NewMemory() *Repositories {
	return &Repositories{
		Users:         NewMemoryUsers(),
		Organisations: NewMemoryRecords(),
		Projects:      NewMemoryRecords(),
		Funding:       NewMemoryRecords(),
		Reports:       NewMemoryRecords(),
		Distributions: NewMemoryRecords(),
		Verifications: NewMemoryRecords(),
		Audit:         NewMemoryRecords(),
	}
}
