// Package secrets resolves per store Shopify API credentials. When a
// secret id is configured they are read from AWS Secrets Manager,
// otherwise from environment variables for local development.
//
// The secret value is a JSON document keyed by store key:
//
//	{"midtown": {"domain": "midtown.myshopify.com", "accessToken": "shpat-..."}}
package secrets

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/shopify"
)

const (
	ECode0A0101 = e.Code0A01 + "01"
	ECode0A0102 = e.Code0A01 + "02"
	ECode0A0103 = e.Code0A01 + "03"
	ECode0A0104 = e.Code0A01 + "04"
	ECode0A0105 = e.Code0A01 + "05"
	ECode0A0106 = e.Code0A01 + "06"
	ECode0A0107 = e.Code0A01 + "07"
)

// Manager resolves and caches store credentials. It implements
// shopify.CredentialSource
type Manager struct {
	client   *secretsmanager.Client
	secretID string

	mu    sync.Mutex
	cache map[string]*shopify.StoreCredentials
}

// NewManager returns a manager reading from the secret id. With an
// empty secret id only the environment fallback is used
func NewManager(ctx context.Context, secretID, region string) (m *Manager, err error) {
	m = &Manager{
		secretID: secretID,
		cache:    map[string]*shopify.StoreCredentials{},
	}

	if secretID == "" {
		return m, nil
	}

	optList := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		optList = append(optList, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, optList...)
	if err != nil {
		return nil, e.W(err, ECode0A0101)
	}

	m.client = secretsmanager.NewFromConfig(cfg)

	return m, nil
}

// StoreCredentials returns the credentials for the store key
func (m *Manager) StoreCredentials(ctx context.Context,
	storeKey string) (creds *shopify.StoreCredentials, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if creds, ok := m.cache[storeKey]; ok {
		return creds, nil
	}

	if m.client == nil {
		creds, err = credsFromENV(storeKey)
		if err != nil {
			return nil, e.W(err, ECode0A0102)
		}
	} else {
		creds, err = m.credsFromSecret(ctx, storeKey)
		if err != nil {
			return nil, e.W(err, ECode0A0103)
		}
	}

	m.cache[storeKey] = creds

	return creds, nil
}

// credsFromSecret fetches the secret and picks out the store's entry
func (m *Manager) credsFromSecret(ctx context.Context,
	storeKey string) (creds *shopify.StoreCredentials, err error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(m.secretID),
	})
	if err != nil {
		return nil, e.W(err, ECode0A0104, m.secretID)
	}

	credsMap := map[string]*shopify.StoreCredentials{}
	if out.SecretString != nil {
		if err := json.Unmarshal([]byte(*out.SecretString), &credsMap); err != nil {
			return nil, e.W(err, ECode0A0105)
		}
	}

	creds, ok := credsMap[storeKey]
	if !ok || creds.Domain == "" || creds.AccessToken == "" {
		return nil, e.N(ECode0A0106, e.MsgStoreCredentialsDoNotExist)
	}

	return creds, nil
}

// credsFromENV reads SHOPIFY_<STORE>_DOMAIN / SHOPIFY_<STORE>_TOKEN,
// falling back to SHOPIFY_DOMAIN / SHOPIFY_TOKEN for a single store
// setup
func credsFromENV(storeKey string) (creds *shopify.StoreCredentials, err error) {
	envKey := strings.ToUpper(strings.ReplaceAll(storeKey, "-", "_"))

	domain := os.Getenv("SHOPIFY_" + envKey + "_DOMAIN")
	token := os.Getenv("SHOPIFY_" + envKey + "_TOKEN")

	if domain == "" || token == "" {
		domain = os.Getenv("SHOPIFY_DOMAIN")
		token = os.Getenv("SHOPIFY_TOKEN")
	}

	if domain == "" || token == "" {
		return nil, e.N(ECode0A0107, e.MsgStoreCredentialsDoNotExist)
	}

	return &shopify.StoreCredentials{
		Domain:      domain,
		AccessToken: token,
	}, nil
}
