package report

// Repository defines the contract for report storage operations
type Repository interface {
	Create(report *Report) error
	GetByID(id string) (*Report, error)
	List(limit int) ([]*Report, error)
	ListByDigest(digest string) ([]*Report, error)
	Delete(id string) error
}
