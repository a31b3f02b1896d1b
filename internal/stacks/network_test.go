// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package stacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drupalcloud/drupalctl/internal/synth"
)

func TestNetworkDefaults(t *testing.T) {
	app := synth.NewApp(testEnv)
	h, err := NewNetworkStack(app, "Network", NetworkProps{})
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.0/16", h.CIDR)
	assert.Equal(t, []string{"us-east-1a", "us-east-1b"}, h.AZs)
	assert.Len(t, h.PublicSubnetExports, 2)
	assert.Len(t, h.PrivateSubnetExports, 2)

	doc := template(t, app, "Network")
	assert.Equal(t, "10.0.0.0/16", doc.Get("Resources.DrupalVPC.Properties.CidrBlock").String())
	assert.True(t, doc.Get("Resources.DrupalVPC.Properties.EnableDnsSupport").Bool())
	assert.Equal(t, "Network-VpcId", doc.Get("Outputs.VpcId.Export.Name").String())
}

func TestNetworkSubnetShape(t *testing.T) {
	app := synth.NewApp(testEnv)
	h, err := NewNetworkStack(app, "Network", NetworkProps{MaxAZs: 2})
	require.NoError(t, err)

	subnets := h.Stack.ResourcesOfType("AWS::EC2::Subnet")
	assert.Len(t, subnets, 4)

	doc := template(t, app, "Network")
	seen := map[string]bool{}
	for _, id := range subnets {
		cidr := doc.Get("Resources." + id + ".Properties.CidrBlock").String()
		assert.False(t, seen[cidr], "duplicate subnet CIDR %s", cidr)
		seen[cidr] = true
	}
	assert.True(t, doc.Get("Resources.PublicSubnet1.Properties.MapPublicIpOnLaunch").Bool())
	assert.False(t, doc.Get("Resources.PrivateSubnet1.Properties.MapPublicIpOnLaunch").Bool())
}

func TestNetworkRejectsBadProps(t *testing.T) {
	tests := []struct {
		name  string
		props NetworkProps
	}{
		{"malformed cidr", NetworkProps{CIDR: "not-a-cidr"}},
		{"ipv6 cidr", NetworkProps{CIDR: "2001:db8::/32"}},
		{"prefix too small", NetworkProps{CIDR: "10.0.0.0/26"}},
		{"non-canonical base address", NetworkProps{CIDR: "10.0.255.0/16"}},
		{"too many azs", NetworkProps{MaxAZs: 7}},
		{"more nats than azs", NetworkProps{MaxAZs: 2, NATGateways: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := synth.NewApp(testEnv)
			_, err := NewNetworkStack(app, "Network", tt.props)
			assert.Error(t, err)
		})
	}
}

func TestNetworkNATSharing(t *testing.T) {
	app := synth.NewApp(testEnv)
	h, err := NewNetworkStack(app, "Network", NetworkProps{MaxAZs: 2, NATGateways: 1})
	require.NoError(t, err)

	assert.Len(t, h.Stack.ResourcesOfType("AWS::EC2::NatGateway"), 1)
	// Both private route tables funnel through the single gateway.
	doc := template(t, app, "Network")
	for _, route := range []string{"PrivateRouteTable1DefaultRoute", "PrivateRouteTable2DefaultRoute"} {
		ref := doc.Get("Resources." + route + ".Properties.NatGatewayId.Ref").String()
		assert.Equal(t, "NatGateway1", ref)
	}
}
