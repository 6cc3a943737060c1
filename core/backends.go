package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Backends bundles the collaborators selected by Config.
type Backends struct {
	Login    *LoginService
	Verifier TokenVerifier // nil unless requested
	Pool     *pgxpool.Pool // nil unless a Postgres backend is in use
}

// NewBackends builds the directory, provider and (optionally) bearer-token
// verifier named by cfg. maxConns bounds the Postgres pool when one is opened.
func NewBackends(ctx context.Context, cfg Config, withVerifier bool, maxConns int32) (*Backends, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Backends{}

	var awsCfg aws.Config
	if cfg.DirectoryBackend == DirectoryRDSData || cfg.ProviderBackend == ProviderCognito {
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		loaded, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = loaded
	}

	if cfg.DirectoryBackend == DirectoryPostgres || cfg.ProviderBackend == ProviderLocal {
		pool, err := Connect(ctx, cfg.DatabaseURL, maxConns)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		b.Pool = pool
	}

	var directory Directory
	switch cfg.DirectoryBackend {
	case DirectoryPostgres:
		directory = NewPgDirectory(b.Pool)
	default:
		directory = NewRDSDataDirectory(rdsdata.NewFromConfig(awsCfg), cfg)
	}

	var provider IdentityProvider
	switch cfg.ProviderBackend {
	case ProviderOIDC:
		p, v, err := DiscoverOIDC(ctx, cfg.OIDCIssuer, cfg)
		if err != nil {
			b.Close()
			return nil, err
		}
		provider = p
		if withVerifier {
			b.Verifier = v
		}
	case ProviderLocal:
		provider = NewLocalProvider(NewPgCredentialRepository(b.Pool), cfg)
		if withVerifier {
			b.Verifier = NewLocalTokenVerifier(cfg)
		}
	default:
		provider = NewCognitoProvider(cip.NewFromConfig(awsCfg), cfg)
		if withVerifier {
			_, v, err := DiscoverOIDC(ctx, cfg.CognitoIssuer(), cfg)
			if err != nil {
				b.Close()
				return nil, err
			}
			b.Verifier = v
		}
	}

	b.Login = NewLoginService(directory, provider)
	return b, nil
}

// Close releases the Postgres pool, if any.
func (b *Backends) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
}
