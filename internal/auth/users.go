package auth

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// User is an API account allowed to log in.
type User struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	AccountID string `yaml:"accountId"`
}

// Directory looks users up by name.
type Directory interface {
	Lookup(ctx context.Context, username string) (User, bool, error)
}

// StaticDirectory is an in-memory user table.
type StaticDirectory map[string]User

func NewStaticDirectory(users []User) StaticDirectory {
	d := make(StaticDirectory, len(users))
	for _, u := range users {
		d[u.Username] = u
	}
	return d
}

func (d StaticDirectory) Lookup(_ context.Context, username string) (User, bool, error) {
	u, ok := d[username]
	return u, ok, nil
}

// DemoUsers is the built-in table used when USER_SOURCE=inline.
func DemoUsers() []User {
	return []User{
		{Username: "admin", Password: "admin123", AccountID: "default"},
		{Username: "analyst", Password: "analyst123", AccountID: "default"},
		{Username: "ingest", Password: "ingest123", AccountID: "pipeline"},
	}
}

// ParseUsers decodes "user:password:account,..." entries. The account part is optional and
// defaults to "default".
func ParseUsers(encoded string) ([]User, error) {
	var out []User
	for _, entry := range strings.Split(encoded, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("auth: malformed user entry %q", entry)
		}
		u := User{Username: parts[0], Password: parts[1], AccountID: "default"}
		if len(parts) == 3 && parts[2] != "" {
			u.AccountID = parts[2]
		}
		out = append(out, u)
	}
	if len(out) == 0 {
		return nil, errors.New("auth: no users defined")
	}
	return out, nil
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// LoadUsersFile reads a YAML document of the form:
//
//	users:
//	  - username: admin
//	    password: $2a$10$...
//	    accountId: default
func LoadUsersFile(path string) ([]User, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: read users file: %w", err)
	}
	var f usersFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("auth: parse users file: %w", err)
	}
	for i, u := range f.Users {
		if u.Username == "" || u.Password == "" {
			return nil, fmt.Errorf("auth: users file entry %d needs username and password", i)
		}
		if u.AccountID == "" {
			f.Users[i].AccountID = "default"
		}
	}
	if len(f.Users) == 0 {
		return nil, errors.New("auth: no users defined")
	}
	return f.Users, nil
}

// PostgresDirectory reads users from the api_users table.
type PostgresDirectory struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresDirectory bounds each lookup by timeout; zero leaves the caller's deadline alone.
func NewPostgresDirectory(db *sql.DB, timeout time.Duration) *PostgresDirectory {
	return &PostgresDirectory{db: db, timeout: timeout}
}

const lookupUserSQL = `SELECT username, password_hash, account_id FROM api_users WHERE username = $1 AND disabled = false`

func (p *PostgresDirectory) Lookup(ctx context.Context, username string) (User, bool, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	var u User
	err := p.db.QueryRowContext(ctx, lookupUserSQL, username).Scan(&u.Username, &u.Password, &u.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("auth: lookup user: %w", err)
	}
	return u, true, nil
}

// Authenticate checks the password for username and returns the matching user.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func Authenticate(ctx context.Context, dir Directory, username, password string) (User, error) {
	if username == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}
	u, ok, err := dir.Lookup(ctx, username)
	if err != nil {
		return User{}, err
	}
	if !ok || !CheckPassword(u.Password, password) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// CheckPassword compares against a bcrypt hash ($2a$, $2b$, $2y$) or a plaintext secret.
func CheckPassword(stored, given string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
