package domain

// RegistrationRequest is either a LocalCredential or a FederatedIdentity.
type RegistrationRequest interface {
	registration()
}

// LocalCredential registers a user who signs in with a password.
type LocalCredential struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// FederatedIdentity registers a user vouched for by an external identity provider.
type FederatedIdentity struct {
	Name          string
	Email         string
	ProviderToken string
	Role          Role
}

func (LocalCredential) registration()   {}
func (FederatedIdentity) registration() {}
