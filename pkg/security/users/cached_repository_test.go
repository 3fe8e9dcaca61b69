package users

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lucinametrics/lucina-service-api/v5/internal/connector"
	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/roles"
)

type mockRepository struct {
	users    map[uuid.UUID]User
	getCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[uuid.UUID]User)}
}

func (m *mockRepository) Authenticate(login string, password string) (User, bool, error) {
	return User{}, false, nil
}

func (m *mockRepository) Get(userUUID uuid.UUID) (User, bool, error) {
	m.getCalls++
	user, found := m.users[userUUID]
	return user, found, nil
}

func (m *mockRepository) GetByLogin(login string) (User, bool, error) {
	for _, user := range m.users {
		if user.Login == login {
			return user, true, nil
		}
	}
	return User{}, false, nil
}

func (m *mockRepository) Create(user UserWithPassword) (uuid.UUID, error) {
	newUUID := uuid.New()
	user.ID = newUUID
	m.users[newUUID] = user.User
	return newUUID, nil
}

func (m *mockRepository) Update(user User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockRepository) UpdatePassword(userUUID uuid.UUID, password string) error {
	return nil
}

func (m *mockRepository) Delete(userUUID uuid.UUID) error {
	delete(m.users, userUUID)
	return nil
}

func (m *mockRepository) List(options dbutils.DBQueryOptionnal) ([]User, error) {
	users := make([]User, 0)
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func TestCachedGet(t *testing.T) {
	mock := newMockRepository()
	cachedR := NewCachedRepository(mock, connector.NewMemoryCache(), time.Minute)

	userID, err := cachedR.Create(UserWithPassword{
		User:     User{Login: "jdoe", Role: roles.Viewer, LastName: "Doe"},
		Password: "password",
	})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	userGet, found, err := cachedR.Get(userID)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if !found {
		t.Error("User not found")
		t.FailNow()
	}
	if userGet.Login != "jdoe" {
		t.Error("The user obtained is different to the inserted user")
	}
	if mock.getCalls != 1 {
		t.Error("First lookup should hit the underlying repository")
	}

	_, found, err = cachedR.Get(userID)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if !found {
		t.Error("User not found")
		t.FailNow()
	}
	if mock.getCalls != 1 {
		t.Error("Second lookup should be served from the cache, got", mock.getCalls, "repository calls")
	}
}

func TestCachedGetMiss(t *testing.T) {
	mock := newMockRepository()
	cachedR := NewCachedRepository(mock, connector.NewMemoryCache(), time.Minute)

	_, found, err := cachedR.Get(uuid.New())
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if found {
		t.Error("User found while it should not")
	}
}

func TestCachedUpdateInvalidates(t *testing.T) {
	mock := newMockRepository()
	cachedR := NewCachedRepository(mock, connector.NewMemoryCache(), time.Minute)

	userID, err := cachedR.Create(UserWithPassword{
		User:     User{Login: "jdoe", Role: roles.Viewer, LastName: "Doe"},
		Password: "password",
	})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	if _, _, err := cachedR.Get(userID); err != nil {
		t.Error(err)
		t.FailNow()
	}

	updated := mock.users[userID]
	updated.Role = roles.Operator
	if err := cachedR.Update(updated); err != nil {
		t.Error(err)
		t.FailNow()
	}

	userGet, found, err := cachedR.Get(userID)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if !found {
		t.Error("User not found")
		t.FailNow()
	}
	if userGet.Role != roles.Operator {
		t.Error("Cached entry should be invalidated on update")
	}
}

func TestCachedDeleteInvalidates(t *testing.T) {
	mock := newMockRepository()
	cachedR := NewCachedRepository(mock, connector.NewMemoryCache(), time.Minute)

	userID, err := cachedR.Create(UserWithPassword{
		User:     User{Login: "jdoe", Role: roles.Viewer, LastName: "Doe"},
		Password: "password",
	})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	if _, _, err := cachedR.Get(userID); err != nil {
		t.Error(err)
		t.FailNow()
	}

	if err := cachedR.Delete(userID); err != nil {
		t.Error(err)
		t.FailNow()
	}

	_, found, err := cachedR.Get(userID)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if found {
		t.Error("User found while it should not")
	}
}
