package scheduler

import (
	"context"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/models"
)

// Trigger implements spec.md §4.2. updated is nil when the caller has no
// freshness timestamp to offer (treated as "process it", per
// shouldProcess's rules). A missing or not-visible package, or a missing
// version record, is logged and treated as an idempotent no-op — it is
// not an error (spec.md §7).
func (s *Scheduler) Trigger(ctx context.Context, service models.Service, packageName, version string, updated *time.Time, highPriority bool) error {
	pkg, err := s.packages.GetPackage(ctx, packageName)
	if err != nil {
		return err
	}
	if pkg == nil || pkg.IsNotVisible {
		s.logger.Debug().Str("package", packageName).Msg("trigger: package absent or not visible, skipping")
		return nil
	}

	if version == "" {
		version = pkg.LatestVersion
	}

	pv, err := s.packages.GetPackageVersion(ctx, packageName, version)
	if err != nil {
		return err
	}
	if pv == nil {
		s.logger.Debug().Str("package", packageName).Str("version", version).Msg("trigger: version absent, skipping")
		return nil
	}

	isLatestStable := pkg.LatestVersion == version
	shouldProcess := highPriority || updated == nil || updated.After(pv.Created)

	var fixedPriority *int
	if highPriority {
		zero := 0
		fixedPriority = &zero
	}

	return s.createOrUpdate(ctx, service, packageName, version, isLatestStable, pv.Created, shouldProcess, fixedPriority)
}
