package tenants

// Repo stores companies keyed by tenant code.
type Repo interface {
	Upsert(company *Company) error
	Get(tenantCode string) (*Company, error)
	List(offset, limit int) ([]*Company, error)
}
