package domain

import "time"

const RoleCustomer = "customer"

type User struct {
	ID                string    `bson:"id"`
	Email             string    `bson:"email"`
	PasswordHash      string    `bson:"password_hash"`
	FullName          string    `bson:"full_name"`
	Phone             string    `bson:"phone"`
	Address           string    `bson:"address"`
	City              string    `bson:"city"`
	PostalCode        string    `bson:"postal_code"`
	Country           string    `bson:"country"`
	Verified          bool      `bson:"verified"`
	VerificationToken string    `bson:"verification_token"`
	Role              string    `bson:"role"`
	CreatedAt         time.Time `bson:"created_at"`
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Verified   bool   `json:"verified"`
	Role       string `json:"role"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Phone:      u.Phone,
		Address:    u.Address,
		City:       u.City,
		PostalCode: u.PostalCode,
		Country:    u.Country,
		Verified:   u.Verified,
		Role:       u.Role,
	}
}

// ProfileUpdate only mutates the fields that are present.
type ProfileUpdate struct {
	FullName   *string `json:"full_name"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}

// Fields returns the bson field names and values that were set.
func (p ProfileUpdate) Fields() map[string]string {
	fields := make(map[string]string)
	set := func(name string, v *string) {
		if v != nil {
			fields[name] = *v
		}
	}
	set("full_name", p.FullName)
	set("phone", p.Phone)
	set("address", p.Address)
	set("city", p.City)
	set("postal_code", p.PostalCode)
	set("country", p.Country)
	return fields
}
