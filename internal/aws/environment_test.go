// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"context"
	"fmt"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	stsv2 "github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	account string
	err     error
}

func (f *fakeIdentity) GetCallerIdentity(ctx context.Context, params *stsv2.GetCallerIdentityInput,
	optFns ...func(*stsv2.Options)) (*stsv2.GetCallerIdentityOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &stsv2.GetCallerIdentityOutput{Account: awsv2.String(f.account)}, nil
}

// TestResolveEnvironment_FromEnv verifies that explicit env vars short
// circuit the config chain entirely.
func TestResolveEnvironment_FromEnv(t *testing.T) {
	t.Setenv(EnvAccount, "123456789012")
	t.Setenv(EnvRegion, "eu-central-1")

	env, err := ResolveEnvironment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "123456789012", env.Account)
	assert.Equal(t, "eu-central-1", env.Region)
}

// TestCallerAccount verifies account extraction from the identity call.
func TestCallerAccount(t *testing.T) {
	account, err := callerAccount(context.Background(), &fakeIdentity{account: "999999999999"})
	require.NoError(t, err)
	assert.Equal(t, "999999999999", account)
}

// TestCallerAccount_Error verifies STS failures surface with context.
func TestCallerAccount_Error(t *testing.T) {
	_, err := callerAccount(context.Background(), &fakeIdentity{err: fmt.Errorf("denied")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STS")
}

// TestCallerAccount_EmptyAccount verifies an empty identity is rejected.
func TestCallerAccount_EmptyAccount(t *testing.T) {
	_, err := callerAccount(context.Background(), &fakeIdentity{account: ""})
	assert.Error(t, err)
}
