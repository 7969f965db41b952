package db

// DbIdentity groups the user and credential operations the identity core
// needs. The concrete implementation (db/zombiezen) performs every
// read-decide-write sequence on credentials inside a single immediate
// transaction so the precondition is evaluated against the snapshot the
// write commits against.
type DbIdentity interface {
	GetUserById(id string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	CreateUser(user User, cred Credential) (*User, error)
	UpdateProfile(userId, name, avatar string) (*User, error)
	VerifyEmail(userId string) error

	GetCredentials(userId string) ([]Credential, error)
	// InsertCredential adds a credential. For ProviderPassword it fails with
	// ErrCredentialExists if one is already present; for OAuth2 providers it
	// fails with ErrProviderTaken if the provider account belongs to another
	// user, and is a no-op if the same account is already linked to userId.
	InsertCredential(cred Credential) error
	// UpdatePasswordSecret replaces the stored password hash. Fails with
	// ErrCredentialNotFound if the user has no password credential.
	UpdatePasswordSecret(userId, newSecret string) error
	// DeleteCredential removes one credential, failing with ErrLastCredential
	// when it is the only one left and ErrCredentialNotFound when absent.
	DeleteCredential(userId, provider string) error
	// DeleteUser cascades: credentials first, then the user row.
	DeleteUser(userId string) error
}

// DbPosts covers the blog module.
type DbPosts interface {
	GetPost(id string) (*Post, error)
	ListPosts(limit, offset int) ([]Post, error)
	CreatePost(post Post) (*Post, error)
	UpdatePost(post Post) (*Post, error)
	DeletePost(id, authorId string) error
}

// DbQueue covers the background job queue.
type DbQueue interface {
	InsertJob(job Job) error
	Claim(limit int) ([]*Job, error)
	MarkCompleted(jobID int64) error
	MarkFailed(jobID int64, errMsg string) error
	MarkRecurrentCompleted(completedJobID int64, newJob Job) error
}

// DbApp is the interface the application wires against; the concrete DB
// implementation must satisfy all roles.
type DbApp interface {
	DbIdentity
	DbPosts
	DbQueue
}
