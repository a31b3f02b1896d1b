// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"context"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	cfnv2 "github.com/aws/aws-sdk-go-v2/service/cloudformation"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	stsv2 "github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWithProfile verifies that WithProfile sets the profile option
// correctly.
func TestWithProfile(t *testing.T) {
	tests := []struct {
		name     string
		profile  string
		expected string
	}{
		{
			name:     "empty profile",
			profile:  "",
			expected: "",
		},
		{
			name:     "default profile",
			profile:  "default",
			expected: "default",
		},
		{
			name:     "custom profile",
			profile:  "my-profile",
			expected: "my-profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts options
			opt := WithProfile(tt.profile)
			opt(&opts)
			assert.Equal(t, tt.expected, opts.profile)
		})
	}
}

// TestWithRegion verifies that WithRegion sets the region option
// correctly.
func TestWithRegion(t *testing.T) {
	var opts options
	WithRegion("eu-west-1")(&opts)
	assert.Equal(t, "eu-west-1", opts.region)
}

// TestWithRetryer verifies that WithRetryer sets the retryer function
// option.
func TestWithRetryer(t *testing.T) {
	mockRetryer := func() awsv2.Retryer {
		return retry.NewStandard()
	}

	var opts options
	opt := WithRetryer(mockRetryer)
	opt(&opts)

	assert.NotNil(t, opts.retryer)
	result := opts.retryer()
	assert.NotNil(t, result)
}

// TestLoadAWSConfig_WithRegion verifies that region option is applied
// during config loading.
func TestLoadAWSConfig_WithRegion(t *testing.T) {
	ctx := context.Background()
	testRegion := "us-west-2"

	cfg, err := LoadAWSConfig(ctx, WithRegion(testRegion))

	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, testRegion, cfg.Region)
}

// TestLoadAWSConfig_OptionsOrder verifies that later options override
// earlier ones.
func TestLoadAWSConfig_OptionsOrder(t *testing.T) {
	ctx := context.Background()
	cfg, err := LoadAWSConfig(
		ctx,
		WithRegion("us-east-1"),
		WithRegion("eu-west-1"),
	)

	assert.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

// TestClientConstruction verifies the service client constructors return
// typed clients from a valid config.
func TestClientConstruction(t *testing.T) {
	ctx := context.Background()
	cfg, err := LoadAWSConfig(ctx, WithRegion("us-east-1"))
	require.NoError(t, err)

	assert.IsType(t, &s3v2.Client{}, NewS3(cfg))
	assert.IsType(t, &stsv2.Client{}, NewSTS(cfg))
	assert.IsType(t, &cfnv2.Client{}, NewCloudFormation(cfg))
}
