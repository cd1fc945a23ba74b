package domain

import "time"

// Customer — покупатель, от имени которого размещаются заказы.
// Для workflow размещения заказа важны только существование и идентификатор;
// Name и Email используются управлением справочником клиентов.
type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты клиента перед сохранением.
func (c *Customer) ValidateInvariants() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, ErrCustomerNameRequired)
	}
	if c.Email == "" {
		errs = append(errs, ErrCustomerEmailRequired)
	}

	return errs
}
