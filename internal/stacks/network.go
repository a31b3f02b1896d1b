// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package stacks

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

// NetworkProps configures the isolated network the platform runs in.
type NetworkProps struct {
	// MaxAZs is the number of availability zones to spread subnets across.
	// Defaults to 2.
	MaxAZs int

	// CIDR is the VPC address range. Defaults to 10.0.0.0/16. The prefix must
	// leave room for one /24 per subnet (MaxAZs public + MaxAZs private).
	CIDR string

	// NATGateways is the number of NAT egress points. Defaults to one per AZ;
	// a smaller count shares gateways across zones.
	NATGateways int
}

func (p *NetworkProps) applyDefaults() {
	if p.MaxAZs == 0 {
		p.MaxAZs = 2
	}
	if p.CIDR == "" {
		p.CIDR = "10.0.0.0/16"
	}
	if p.NATGateways == 0 {
		p.NATGateways = p.MaxAZs
	}
}

// NetworkHandle is the read-only reference the network component hands to
// consumers: export names, never live resources.
type NetworkHandle struct {
	Stack *synth.Stack

	VPCExport            string
	CIDR                 string
	AZs                  []string
	PublicSubnetExports  []string
	PrivateSubnetExports []string
}

// NewNetworkStack declares a VPC with MaxAZs public and MaxAZs private /24
// subnets, an internet gateway, per-AZ (or shared) NAT gateways, and route
// tables wiring private subnets to NAT egress. The subnet count invariant is
// MaxAZs x 2.
func NewNetworkStack(app *synth.App, name string, props NetworkProps) (*NetworkHandle, error) {
	props.applyDefaults()

	base, err := validateNetworkProps(props)
	if err != nil {
		return nil, err
	}

	s := app.NewStack(name)
	s.Description = "Isolated network for the Drupal platform"

	azs := make([]string, props.MaxAZs)
	for i := range azs {
		azs[i] = fmt.Sprintf("%s%c", app.Env().Region, 'a'+i)
	}

	s.MustAddResource("DrupalVPC", &synth.Resource{
		Type: "AWS::EC2::VPC",
		Properties: map[string]any{
			"CidrBlock":          props.CIDR,
			"EnableDnsSupport":   true,
			"EnableDnsHostnames": true,
			"Tags": []any{
				map[string]any{"Key": "Name", "Value": "drupal-vpc"},
			},
		},
	})

	s.MustAddResource("InternetGateway", &synth.Resource{
		Type: "AWS::EC2::InternetGateway",
	})
	s.MustAddResource("GatewayAttachment", &synth.Resource{
		Type: "AWS::EC2::VPCGatewayAttachment",
		Properties: map[string]any{
			"VpcId":             synth.Ref("DrupalVPC"),
			"InternetGatewayId": synth.Ref("InternetGateway"),
		},
	})

	s.MustAddResource("PublicRouteTable", &synth.Resource{
		Type: "AWS::EC2::RouteTable",
		Properties: map[string]any{
			"VpcId": synth.Ref("DrupalVPC"),
		},
	})
	s.MustAddResource("PublicDefaultRoute", &synth.Resource{
		Type: "AWS::EC2::Route",
		Properties: map[string]any{
			"RouteTableId":         synth.Ref("PublicRouteTable"),
			"DestinationCidrBlock": "0.0.0.0/0",
			"GatewayId":            synth.Ref("InternetGateway"),
		},
		DependsOn: []string{"GatewayAttachment"},
	})

	handle := &NetworkHandle{
		Stack:     s,
		VPCExport: name + "-VpcId",
		CIDR:      props.CIDR,
		AZs:       azs,
	}

	// Public subnets first, then private, carving consecutive /24 blocks.
	for i := 0; i < props.MaxAZs; i++ {
		id := fmt.Sprintf("PublicSubnet%d", i+1)
		s.MustAddResource(id, &synth.Resource{
			Type: "AWS::EC2::Subnet",
			Properties: map[string]any{
				"VpcId":               synth.Ref("DrupalVPC"),
				"CidrBlock":           subnetCIDR(base, i),
				"AvailabilityZone":    azs[i],
				"MapPublicIpOnLaunch": true,
				"Tags": []any{
					map[string]any{"Key": "subnet-type", "Value": "Public"},
				},
			},
		})
		s.MustAddResource(id+"RouteAssoc", &synth.Resource{
			Type: "AWS::EC2::SubnetRouteTableAssociation",
			Properties: map[string]any{
				"SubnetId":     synth.Ref(id),
				"RouteTableId": synth.Ref("PublicRouteTable"),
			},
		})
		export := fmt.Sprintf("%s-PublicSubnet%dId", name, i+1)
		s.AddOutput(fmt.Sprintf("PublicSubnet%dId", i+1), synth.Output{
			Value:  synth.Ref(id),
			Export: export,
		})
		handle.PublicSubnetExports = append(handle.PublicSubnetExports, export)
	}

	for i := 0; i < props.NATGateways; i++ {
		eip := fmt.Sprintf("NatEip%d", i+1)
		nat := fmt.Sprintf("NatGateway%d", i+1)
		s.MustAddResource(eip, &synth.Resource{
			Type: "AWS::EC2::EIP",
			Properties: map[string]any{
				"Domain": "vpc",
			},
			DependsOn: []string{"GatewayAttachment"},
		})
		s.MustAddResource(nat, &synth.Resource{
			Type: "AWS::EC2::NatGateway",
			Properties: map[string]any{
				"AllocationId": synth.GetAtt(eip, "AllocationId"),
				"SubnetId":     synth.Ref(fmt.Sprintf("PublicSubnet%d", i+1)),
			},
		})
	}

	for i := 0; i < props.MaxAZs; i++ {
		id := fmt.Sprintf("PrivateSubnet%d", i+1)
		rt := fmt.Sprintf("PrivateRouteTable%d", i+1)
		// Shared NAT setups route multiple zones through the same gateway.
		nat := fmt.Sprintf("NatGateway%d", i%props.NATGateways+1)

		s.MustAddResource(id, &synth.Resource{
			Type: "AWS::EC2::Subnet",
			Properties: map[string]any{
				"VpcId":            synth.Ref("DrupalVPC"),
				"CidrBlock":        subnetCIDR(base, props.MaxAZs+i),
				"AvailabilityZone": azs[i],
				"Tags": []any{
					map[string]any{"Key": "subnet-type", "Value": "Private"},
				},
			},
		})
		s.MustAddResource(rt, &synth.Resource{
			Type: "AWS::EC2::RouteTable",
			Properties: map[string]any{
				"VpcId": synth.Ref("DrupalVPC"),
			},
		})
		s.MustAddResource(rt+"DefaultRoute", &synth.Resource{
			Type: "AWS::EC2::Route",
			Properties: map[string]any{
				"RouteTableId":         synth.Ref(rt),
				"DestinationCidrBlock": "0.0.0.0/0",
				"NatGatewayId":         synth.Ref(nat),
			},
		})
		s.MustAddResource(id+"RouteAssoc", &synth.Resource{
			Type: "AWS::EC2::SubnetRouteTableAssociation",
			Properties: map[string]any{
				"SubnetId":     synth.Ref(id),
				"RouteTableId": synth.Ref(rt),
			},
		})
		export := fmt.Sprintf("%s-PrivateSubnet%dId", name, i+1)
		s.AddOutput(fmt.Sprintf("PrivateSubnet%dId", i+1), synth.Output{
			Value:  synth.Ref(id),
			Export: export,
		})
		handle.PrivateSubnetExports = append(handle.PrivateSubnetExports, export)
	}

	s.AddOutput("VpcId", synth.Output{
		Value:       synth.Ref("DrupalVPC"),
		Description: "VPC identifier",
		Export:      handle.VPCExport,
	})
	s.AddOutput("VpcCidr", synth.Output{
		Value:  props.CIDR,
		Export: name + "-VpcCidr",
	})

	log.Debugf("network declared: azs=%d subnets=%d nat=%d", props.MaxAZs, 2*props.MaxAZs, props.NATGateways)
	return handle, nil
}

// validateNetworkProps checks zone and CIDR bounds and returns the base IPv4
// address of the range.
func validateNetworkProps(props NetworkProps) (uint32, error) {
	if props.MaxAZs < 1 || props.MaxAZs > 6 {
		return 0, fmt.Errorf("max_azs must be between 1 and 6, got %d", props.MaxAZs)
	}
	if props.NATGateways < 1 || props.NATGateways > props.MaxAZs {
		return 0, fmt.Errorf("nat_gateways must be between 1 and max_azs (%d), got %d", props.MaxAZs, props.NATGateways)
	}

	ip, ipnet, err := net.ParseCIDR(props.CIDR)
	if err != nil {
		return 0, fmt.Errorf("invalid cidr %q: %w", props.CIDR, err)
	}
	// Carve from the masked network base, and refuse input with address bits
	// set beyond the mask: silently snapping 10.0.255.0/16 to 10.0.0.0/16
	// would hide a typo until deploy time.
	v4 := ipnet.IP.To4()
	if v4 == nil {
		return 0, fmt.Errorf("invalid cidr %q: not an IPv4 range", props.CIDR)
	}
	if !ip.Equal(ipnet.IP) {
		return 0, fmt.Errorf("cidr %q is not a network address: base of the range is %s", props.CIDR, ipnet)
	}
	ones, _ := ipnet.Mask.Size()
	if ones > 24 {
		return 0, fmt.Errorf("cidr %q too small: need room for /24 subnets", props.CIDR)
	}
	capacity := 1 << (24 - ones)
	if 2*props.MaxAZs > capacity {
		return 0, fmt.Errorf("cidr %q holds %d /24 subnets, need %d", props.CIDR, capacity, 2*props.MaxAZs)
	}

	return binary.BigEndian.Uint32(v4), nil
}

// subnetCIDR carves the i-th /24 block out of the base address.
func subnetCIDR(base uint32, i int) string {
	addr := base + uint32(i)<<8
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], addr)
	return fmt.Sprintf("%d.%d.%d.0/24", b[0], b[1], b[2])
}
