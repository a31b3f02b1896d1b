// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	cfnv2 "github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/drupalcloud/drupalctl/internal/log"
)

// Templates above this size must be staged to S3 before CloudFormation will
// accept them.
const inlineTemplateLimit = 51200

// Deployer creates or updates stacks and reports their outputs.
type Deployer interface {
	Deploy(ctx context.Context, name string, template []byte) (map[string]string, error)
	Outputs(ctx context.Context, name string) (map[string]string, error)
}

// cfnAPI is the slice of the CloudFormation client the deployer needs. The
// waiter constructors accept the same client.
type cfnAPI interface {
	cfnv2.DescribeStacksAPIClient
	CreateStack(ctx context.Context, params *cfnv2.CreateStackInput,
		optFns ...func(*cfnv2.Options)) (*cfnv2.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cfnv2.UpdateStackInput,
		optFns ...func(*cfnv2.Options)) (*cfnv2.UpdateStackOutput, error)
}

type s3API interface {
	PutObject(ctx context.Context, params *s3v2.PutObjectInput,
		optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
}

// CFNDeployer deploys templates through CloudFormation, staging oversized
// bodies to S3 first.
type CFNDeployer struct {
	CFN         cfnAPI
	S3          s3API
	Bucket      string
	Region      string
	WaitTimeout time.Duration
}

// NewCFNDeployer constructs a deployer. bucket may be empty when every
// template fits inline.
func NewCFNDeployer(cfn *cfnv2.Client, s3 *s3v2.Client, bucket, region string) *CFNDeployer {
	return &CFNDeployer{
		CFN:         cfn,
		S3:          s3,
		Bucket:      bucket,
		Region:      region,
		WaitTimeout: 30 * time.Minute,
	}
}

// Deploy creates the stack, or updates it when it already exists, and blocks
// until CloudFormation settles. A no-op update is success.
func (d *CFNDeployer) Deploy(ctx context.Context, name string, template []byte) (map[string]string, error) {
	body, url, err := d.stageTemplate(ctx, name, template)
	if err != nil {
		return nil, err
	}

	exists, err := d.stackExists(ctx, name)
	if err != nil {
		return nil, err
	}

	caps := []cfntypes.Capability{
		cfntypes.CapabilityCapabilityIam,
		cfntypes.CapabilityCapabilityNamedIam,
	}

	if exists {
		log.Infof("updating stack %s", name)
		_, err = d.CFN.UpdateStack(ctx, &cfnv2.UpdateStackInput{
			StackName:    awsv2.String(name),
			TemplateBody: body,
			TemplateURL:  url,
			Capabilities: caps,
		})
		if err != nil {
			if isNoUpdate(err) {
				log.Infof("stack %s already up to date", name)
				return d.Outputs(ctx, name)
			}
			return nil, errors.Wrapf(err, "failed to update stack %s", name)
		}
		waiter := cfnv2.NewStackUpdateCompleteWaiter(d.CFN)
		if err := waiter.Wait(ctx, describeInput(name), d.WaitTimeout); err != nil {
			return nil, errors.Wrapf(err, "stack %s did not reach UPDATE_COMPLETE", name)
		}
	} else {
		log.Infof("creating stack %s", name)
		_, err = d.CFN.CreateStack(ctx, &cfnv2.CreateStackInput{
			StackName:    awsv2.String(name),
			TemplateBody: body,
			TemplateURL:  url,
			Capabilities: caps,
			OnFailure:    cfntypes.OnFailureRollback,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create stack %s", name)
		}
		waiter := cfnv2.NewStackCreateCompleteWaiter(d.CFN)
		if err := waiter.Wait(ctx, describeInput(name), d.WaitTimeout); err != nil {
			return nil, errors.Wrapf(err, "stack %s did not reach CREATE_COMPLETE", name)
		}
	}

	return d.Outputs(ctx, name)
}

// Outputs returns the stack's outputs keyed by output name.
func (d *CFNDeployer) Outputs(ctx context.Context, name string) (map[string]string, error) {
	out, err := d.CFN.DescribeStacks(ctx, describeInput(name))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to describe stack %s", name)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s not found", name)
	}

	outputs := map[string]string{}
	for _, o := range out.Stacks[0].Outputs {
		if o.OutputKey != nil && o.OutputValue != nil {
			outputs[*o.OutputKey] = *o.OutputValue
		}
	}
	return outputs, nil
}

// stageTemplate returns either an inline body or an S3 URL for oversized
// templates.
func (d *CFNDeployer) stageTemplate(ctx context.Context, name string, template []byte) (*string, *string, error) {
	if len(template) <= inlineTemplateLimit {
		return awsv2.String(string(template)), nil, nil
	}
	if d.Bucket == "" {
		return nil, nil, fmt.Errorf("template for %s is %d bytes, over the inline limit, and no staging bucket is configured",
			name, len(template))
	}

	key := fmt.Sprintf("templates/%s-%d.json", name, time.Now().Unix())
	_, err := d.S3.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket: awsv2.String(d.Bucket),
		Key:    awsv2.String(key),
		Body:   bytes.NewReader(template),
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to stage template for %s", name)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", d.Bucket, d.Region, key)
	log.Debugf("template staged: %s", url)
	return nil, awsv2.String(url), nil
}

func (d *CFNDeployer) stackExists(ctx context.Context, name string) (bool, error) {
	out, err := d.CFN.DescribeStacks(ctx, describeInput(name))
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to describe stack %s", name)
	}
	return len(out.Stacks) > 0, nil
}

func describeInput(name string) *cfnv2.DescribeStacksInput {
	return &cfnv2.DescribeStacksInput{StackName: awsv2.String(name)}
}

func isNoUpdate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "No updates are to be performed")
}
