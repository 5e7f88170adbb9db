package lessons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

const (
	// CredentialsJSONEnv holds a serialized service account credential.
	CredentialsJSONEnv = "FIREBASE_CREDENTIALS_JSON"
	// CredentialsFileEnv overrides the credential file location.
	CredentialsFileEnv = "FIREBASE_CREDENTIALS_FILE"
	// ProjectIDEnv overrides the project found in the credentials.
	ProjectIDEnv = "FIREBASE_PROJECT_ID"

	// DefaultCredentialsFile is looked up relative to the working directory.
	DefaultCredentialsFile = "firebase_admin_key.json"
)

// ErrNoCredentials is returned when neither credential source is available.
var ErrNoCredentials = errors.New("firebase credentials not found: set " + CredentialsJSONEnv + " or provide a credential file")

// Credentials names where the store credential comes from. JSON wins over File.
type Credentials struct {
	JSON      string
	File      string
	ProjectID string
}

// CredentialsFromEnv reads the credential settings from the environment.
func CredentialsFromEnv() Credentials {
	file := strings.TrimSpace(os.Getenv(CredentialsFileEnv))
	if file == "" {
		file = DefaultCredentialsFile
	}
	return Credentials{
		JSON:      strings.TrimSpace(os.Getenv(CredentialsJSONEnv)),
		File:      file,
		ProjectID: strings.TrimSpace(os.Getenv(ProjectIDEnv)),
	}
}

// clientOption resolves the credential source and reports which one was used.
func (c Credentials) clientOption() (option.ClientOption, string, error) {
	if raw := strings.TrimSpace(c.JSON); raw != "" {
		var probe map[string]any
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			return nil, "", fmt.Errorf("%s is not a JSON object: %w", CredentialsJSONEnv, err)
		}
		return option.WithCredentialsJSON([]byte(raw)), "env", nil
	}

	if path := strings.TrimSpace(c.File); path != "" {
		info, err := os.Stat(path)
		switch {
		case err == nil && info.IsDir():
			return nil, "", fmt.Errorf("credential file %s is a directory", path)
		case err == nil:
			return option.WithCredentialsFile(path), "file", nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, "", fmt.Errorf("stat credential file: %w", err)
		}
	}

	return nil, "", ErrNoCredentials
}

type dialFunc func(ctx context.Context, opt option.ClientOption, projectID string) (*firestore.Client, error)

// Connector lazily opens the single Firestore-backed store of a process.
// Repeated calls to Store return the same handle.
type Connector struct {
	creds Credentials
	log   *slog.Logger
	dial  dialFunc

	mu    sync.Mutex
	store *FirestoreStore
}

// NewConnector creates a connector for the given credentials.
func NewConnector(creds Credentials, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{creds: creds, log: logger, dial: dialFirebase}
}

// Store returns the shared store, opening it on first use. A failed attempt
// is not remembered; the next call tries again.
func (c *Connector) Store(ctx context.Context) (*FirestoreStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		return c.store, nil
	}

	opt, source, err := c.creds.clientOption()
	if err != nil {
		return nil, err
	}

	client, err := c.dial(ctx, opt, c.creds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("initialize firestore: %w", err)
	}

	c.store = NewFirestoreStore(client)
	c.log.Info("firestore initialized", "credentials_source", source, "collection", CollectionName)
	return c.store, nil
}

// Close closes the store if one was opened.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func dialFirebase(ctx context.Context, opt option.ClientOption, projectID string) (*firestore.Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		return nil, err
	}
	return app.Firestore(ctx)
}
