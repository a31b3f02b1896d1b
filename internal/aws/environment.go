// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"fmt"
	"os"

	stsv2 "github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

// Env vars honored before the shared config chain is consulted.
const (
	EnvAccount = "CDK_DEFAULT_ACCOUNT"
	EnvRegion  = "CDK_DEFAULT_REGION"
)

// identityAPI is the slice of the STS client the resolver needs.
type identityAPI interface {
	GetCallerIdentity(ctx context.Context, params *stsv2.GetCallerIdentityInput,
		optFns ...func(*stsv2.Options)) (*stsv2.GetCallerIdentityOutput, error)
}

// ResolveEnvironment determines the target account and region. Explicit env
// vars win so assembly never needs credentials when both are set. Otherwise
// the shared config chain supplies the region and STS the account.
func ResolveEnvironment(ctx context.Context, opts ...Option) (synth.Environment, error) {
	account := os.Getenv(EnvAccount)
	region := os.Getenv(EnvRegion)
	if account != "" && region != "" {
		log.Debugf("environment from env: account=%s region=%s", account, region)
		return synth.Environment{Account: account, Region: region}, nil
	}

	cfg, err := LoadAWSConfig(ctx, opts...)
	if err != nil {
		return synth.Environment{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if region == "" {
		region = cfg.Region
	}
	if region == "" {
		return synth.Environment{}, fmt.Errorf("no region: set %s or configure the AWS region", EnvRegion)
	}
	if account == "" {
		account, err = callerAccount(ctx, NewSTS(cfg))
		if err != nil {
			return synth.Environment{}, err
		}
	}

	log.Debugf("environment resolved: account=%s region=%s", account, region)
	return synth.Environment{Account: account, Region: region}, nil
}

func callerAccount(ctx context.Context, client identityAPI) (string, error) {
	out, err := client.GetCallerIdentity(ctx, &stsv2.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to resolve account via STS: %w", err)
	}
	if out.Account == nil || *out.Account == "" {
		return "", fmt.Errorf("STS returned no account")
	}
	return *out.Account, nil
}
