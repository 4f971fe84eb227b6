package users

type UserRepo interface {
	Upsert(account *Account) error
	GetByUsername(username string) (*Account, error)
	GetByID(id int) (*Account, error)
	List(tenantCode string) ([]*Account, error)
}
