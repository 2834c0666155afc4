package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"allthingslinux/atl/internal/declaration"
	"allthingslinux/atl/internal/overlay"
	"allthingslinux/atl/internal/util"
	"allthingslinux/atl/internal/vars"

	"go.uber.org/zap"
)

// DefaultOverlayTimeout bounds each overlay fetch.
const DefaultOverlayTimeout = 30 * time.Second

// Builder produces inventories from a declaration file and a list of overlay
// providers. A Builder holds no state between builds.
type Builder struct {
	declarationPath string
	providers       []overlay.Provider
	overlayTimeout  time.Duration
	log             *zap.SugaredLogger
}

// Option configures a Builder.
type Option func(*Builder)

// WithProviders sets the overlay providers in order of preference.
func WithProviders(providers ...overlay.Provider) Option {
	return func(b *Builder) {
		b.providers = providers
	}
}

// WithOverlayTimeout bounds each provider's Fetch. Non-positive values keep
// the default.
func WithOverlayTimeout(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.overlayTimeout = d
		}
	}
}

// WithLogger sets the logger used for overlay diagnostics and warnings.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// New returns a Builder reading the declaration at declarationPath.
func New(declarationPath string, opts ...Option) *Builder {
	b := &Builder{
		declarationPath: declarationPath,
		overlayTimeout:  DefaultOverlayTimeout,
		log:             zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build loads the declaration, fetches the preferred overlay and assembles
// the inventory. Only declaration errors are returned.
func (b *Builder) Build(ctx context.Context) (*Inventory, error) {
	cfg, err := declaration.Load(b.declarationPath)
	if err != nil {
		return nil, err
	}
	return Assemble(cfg, b.activeOverlay(ctx), b.log), nil
}

// HostVars runs a full build and returns the variables of host. An unknown
// host yields an empty map.
func (b *Builder) HostVars(ctx context.Context, host string) (*vars.Map, error) {
	inv, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	if hv, ok := inv.HostVars(host); ok {
		return hv, nil
	}
	return vars.New(), nil
}

// activeOverlay fetches providers in order and returns the first present
// overlay. Every provider is queried so each failure is logged.
func (b *Builder) activeOverlay(ctx context.Context) *overlay.Overlay {
	var active *overlay.Overlay
	for _, p := range b.providers {
		ov, err := b.fetch(ctx, p)
		if err != nil {
			b.log.Debugw("overlay unavailable", "source", p.Name(), "error", err)
			continue
		}
		if !ov.Present() {
			b.log.Debugw("overlay is empty", "source", p.Name())
			continue
		}
		b.log.Debugw("overlay loaded", "source", p.Name(), "hosts", ov.HostCount())
		if active == nil {
			active = ov
		}
	}
	if active != nil {
		b.log.Debugw("using overlay", "source", active.Source())
	}
	return active
}

func (b *Builder) fetch(ctx context.Context, p overlay.Provider) (*overlay.Overlay, error) {
	ctx, cancel := context.WithTimeout(ctx, b.overlayTimeout)
	defer cancel()
	return p.Fetch(ctx)
}

// Assemble builds the inventory for cfg with ov layered over the declared
// host variables. ov may be nil.
func Assemble(cfg *declaration.Config, ov *overlay.Overlay, log *zap.SugaredLogger) *Inventory {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	inv := newInventory()
	inv.overlaySource = ov.Source()

	environment := cfg.Environment()

	for _, item := range cfg.Items() {
		if !item.Provisioned() {
			continue
		}
		if item.Name == MetaKey || item.Name == AllKey {
			log.Warnw("skipping item with reserved group name", "item", item.Name)
			continue
		}

		hosts := item.Hostnames()
		if len(hosts) == 0 {
			continue
		}

		for _, host := range hosts {
			if err := util.ValidateHostname(host); err != nil {
				log.Warnw("generated hostname is not valid", "item", item.Name, "host", host, "error", err)
			}

			base := vars.Of(
				"ansible_user", cfg.DefaultUser(),
				"server_role", item.Name,
				"deployment_environment", environment,
				"project", cfg.ProjectName(),
			)

			var live *vars.Map
			if hv, ok := ov.Lookup(item.Name, host); ok {
				live = hv
			}

			inv.addToGroup(item.Name, host)
			inv.setHost(host, vars.Merge(base, item.Data, live))
		}
	}

	addServiceGroups(inv)
	envGroup := EnvGroupPrefix + environment
	inv.ensureGroup(envGroup)
	for _, host := range inv.hosts {
		inv.addToGroup(envGroup, host)
	}
	addRoleGroups(inv)

	return inv
}

func addServiceGroups(inv *Inventory) {
	for _, host := range inv.hosts {
		for _, service := range declaration.StringList(inv.hostvars[host], "services") {
			inv.addToGroup(ServiceGroupName(service), host)
		}
	}
}

func addRoleGroups(inv *Inventory) {
	for _, host := range inv.hosts {
		role := UnknownRole
		if v, ok := inv.hostvars[host].Get("server_role"); ok && v != nil {
			role = fmt.Sprint(v)
		}
		inv.addToGroup(RoleGroupPrefix+role, host)
	}
}

// ServiceGroupName returns the group name for a service: service_ followed
// by the service with hyphens replaced by underscores.
func ServiceGroupName(service string) string {
	return ServiceGroupPrefix + strings.ReplaceAll(service, "-", "_")
}
