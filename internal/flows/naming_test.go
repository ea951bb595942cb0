package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahertel/flowatlas/internal/entrypoints"
	"github.com/ahertel/flowatlas/internal/store"
)

func TestFlowName(t *testing.T) {
	tests := []struct {
		name   string
		member entrypoints.EntryPointMember
		want   string
	}{
		{
			name:   "verb and entity",
			member: entrypoints.EntryPointMember{Name: "createOrder", ActionType: store.ActionCreate, TargetEntity: "order"},
			want:   "CreateOrderFlow",
		},
		{
			name:   "multi word entity",
			member: entrypoints.EntryPointMember{Name: "addItem", ActionType: store.ActionCreate, TargetEntity: "order item"},
			want:   "CreateOrderItemFlow",
		},
		{
			name:   "handle prefix stripped",
			member: entrypoints.EntryPointMember{Name: "handleCheckout"},
			want:   "CheckoutFlow",
		},
		{
			name:   "handler suffix stripped",
			member: entrypoints.EntryPointMember{Name: "checkoutHandler"},
			want:   "CheckoutFlow",
		},
		{
			name:   "controller suffix stripped",
			member: entrypoints.EntryPointMember{Name: "paymentController"},
			want:   "PaymentFlow",
		},
		{
			name:   "on prefix stripped",
			member: entrypoints.EntryPointMember{Name: "onSubmit"},
			want:   "SubmitFlow",
		},
		{
			name:   "verb without entity prefixes cleaned name",
			member: entrypoints.EntryPointMember{Name: "handleOrder", ActionType: store.ActionView},
			want:   "ViewOrderFlow",
		},
		{
			name:   "verb not duplicated",
			member: entrypoints.EntryPointMember{Name: "viewCart", ActionType: store.ActionView},
			want:   "ViewCartFlow",
		},
		{
			name:   "plain name capitalized",
			member: entrypoints.EntryPointMember{Name: "checkout"},
			want:   "CheckoutFlow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flowName(tt.member))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"CreateOrderFlow", "create-order-flow"},
		{"ViewCartFlow", "view-cart-flow"},
		{"Flow", "flow"},
		{"checkout", "checkout"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "slugify(%q)", tt.in)
	}
}

func TestStakeholderForPath(t *testing.T) {
	tests := []struct {
		path string
		want store.Stakeholder
	}{
		{"app.admin.users", store.StakeholderAdmin},
		{"app.api.orders", store.StakeholderExternal},
		{"app.routes.cart", store.StakeholderExternal},
		{"app.cron.cleanup", store.StakeholderSystem},
		{"app.jobs.billing", store.StakeholderSystem},
		{"app.workers.mailer", store.StakeholderSystem},
		{"app.cli.migrate", store.StakeholderDeveloper},
		{"app.commands.seed", store.StakeholderDeveloper},
		{"app.screens.home", store.StakeholderUser},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stakeholderForPath(tt.path), "path %q", tt.path)
	}
}
