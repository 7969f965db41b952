package mock

import (
	"github.com/caasmo/credkeeper/db"
)

// Compile-time check to ensure Db implements the DbApp interface
var _ db.DbApp = (*Db)(nil)

// Db implements db.DbApp for testing purposes.
// Use function fields to allow overriding behavior in specific tests.
type Db struct {
	// --- Mock DbIdentity Methods ---
	GetUserByIdFunc          func(id string) (*db.User, error)
	GetUserByEmailFunc       func(email string) (*db.User, error)
	CreateUserFunc           func(user db.User, cred db.Credential) (*db.User, error)
	UpdateProfileFunc        func(userId, name, avatar string) (*db.User, error)
	VerifyEmailFunc          func(userId string) error
	GetCredentialsFunc       func(userId string) ([]db.Credential, error)
	InsertCredentialFunc     func(cred db.Credential) error
	UpdatePasswordSecretFunc func(userId, secret string) error
	DeleteCredentialFunc     func(userId, provider string) error
	DeleteUserFunc           func(userId string) error

	// --- Mock DbPosts Methods ---
	GetPostFunc    func(id string) (*db.Post, error)
	ListPostsFunc  func(limit, offset int) ([]db.Post, error)
	CreatePostFunc func(post db.Post) (*db.Post, error)
	UpdatePostFunc func(post db.Post) (*db.Post, error)
	DeletePostFunc func(id, authorId string) error

	// --- Mock DbQueue Methods ---
	InsertJobFunc              func(job db.Job) error
	ClaimFunc                  func(limit int) ([]*db.Job, error)
	MarkCompletedFunc          func(jobID int64) error
	MarkFailedFunc             func(jobID int64, errMsg string) error
	MarkRecurrentCompletedFunc func(completedJobID int64, newJob db.Job) error
}

// --- Implement DbIdentity ---
func (m *Db) GetUserById(id string) (*db.User, error) {
	if m.GetUserByIdFunc != nil {
		return m.GetUserByIdFunc(id)
	}
	return nil, db.ErrUserNotFound // Default: Not found
}
func (m *Db) GetUserByEmail(email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(email)
	}
	return nil, db.ErrUserNotFound // Default: Not found
}
func (m *Db) CreateUser(user db.User, cred db.Credential) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(user, cred)
	}
	// Default: Return the user passed in, assuming success
	if user.ID == "" {
		user.ID = "mock-user-id"
	}
	return &user, nil
}
func (m *Db) UpdateProfile(userId, name, avatar string) (*db.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(userId, name, avatar)
	}
	return &db.User{ID: userId, Name: name, Avatar: avatar}, nil
}
func (m *Db) VerifyEmail(userId string) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(userId)
	}
	return nil // Default: Success
}
func (m *Db) GetCredentials(userId string) ([]db.Credential, error) {
	if m.GetCredentialsFunc != nil {
		return m.GetCredentialsFunc(userId)
	}
	return nil, nil // Default: No credentials
}
func (m *Db) InsertCredential(cred db.Credential) error {
	if m.InsertCredentialFunc != nil {
		return m.InsertCredentialFunc(cred)
	}
	return nil // Default: Success
}
func (m *Db) UpdatePasswordSecret(userId, secret string) error {
	if m.UpdatePasswordSecretFunc != nil {
		return m.UpdatePasswordSecretFunc(userId, secret)
	}
	return nil // Default: Success
}
func (m *Db) DeleteCredential(userId, provider string) error {
	if m.DeleteCredentialFunc != nil {
		return m.DeleteCredentialFunc(userId, provider)
	}
	return nil // Default: Success
}
func (m *Db) DeleteUser(userId string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(userId)
	}
	return nil // Default: Success
}

// --- Implement DbPosts ---
func (m *Db) GetPost(id string) (*db.Post, error) {
	if m.GetPostFunc != nil {
		return m.GetPostFunc(id)
	}
	return nil, db.ErrPostNotFound // Default: Not found
}
func (m *Db) ListPosts(limit, offset int) ([]db.Post, error) {
	if m.ListPostsFunc != nil {
		return m.ListPostsFunc(limit, offset)
	}
	return nil, nil // Default: Empty list
}
func (m *Db) CreatePost(post db.Post) (*db.Post, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(post)
	}
	if post.ID == "" {
		post.ID = "mock-post-id"
	}
	return &post, nil
}
func (m *Db) UpdatePost(post db.Post) (*db.Post, error) {
	if m.UpdatePostFunc != nil {
		return m.UpdatePostFunc(post)
	}
	return &post, nil
}
func (m *Db) DeletePost(id, authorId string) error {
	if m.DeletePostFunc != nil {
		return m.DeletePostFunc(id, authorId)
	}
	return nil // Default: Success
}

// --- Implement DbQueue ---
func (m *Db) InsertJob(job db.Job) error {
	if m.InsertJobFunc != nil {
		return m.InsertJobFunc(job)
	}
	return nil // Default: Success
}
func (m *Db) Claim(limit int) ([]*db.Job, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(limit)
	}
	return nil, nil // Default: No jobs
}
func (m *Db) MarkCompleted(jobID int64) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(jobID)
	}
	return nil // Default: Success
}
func (m *Db) MarkFailed(jobID int64, errMsg string) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(jobID, errMsg)
	}
	return nil // Default: Success
}
func (m *Db) MarkRecurrentCompleted(completedJobID int64, newJob db.Job) error {
	if m.MarkRecurrentCompletedFunc != nil {
		return m.MarkRecurrentCompletedFunc(completedJobID, newJob)
	}
	return nil // Default: Success
}
