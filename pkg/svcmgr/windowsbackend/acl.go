// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package windowsbackend

import (
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc/mgr"

	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/pkg/errkind"
)

// applyACEs grants each configured trustee the given access mask on the
// service object, layering them onto whatever discretionary ACL the SCM
// assigned at creation time.
func applyACEs(s *mgr.Service, aces []daemonkit.ACE) error {
	sd, err := s.GetSecurity(windows.DACL_SECURITY_INFORMATION)
	if err != nil {
		return fmt.Errorf("%w: read service security: %w", errkind.ErrBackendIO, err)
	}
	dacl, _, err := sd.DACL()
	if err != nil {
		return fmt.Errorf("%w: read service dacl: %w", errkind.ErrBackendIO, err)
	}

	explicit := make([]windows.EXPLICIT_ACCESS, 0, len(aces))
	for _, ace := range aces {
		sid, _, _, err := windows.LookupSID("", ace.Trustee)
		if err != nil {
			return fmt.Errorf("%w: lookup trustee %s: %w", errkind.ErrBackendIO, ace.Trustee, err)
		}
		explicit = append(explicit, windows.EXPLICIT_ACCESS{
			AccessPermissions: windows.ACCESS_MASK(ace.AccessMask),
			AccessMode:        windows.GRANT_ACCESS,
			Trustee: windows.TRUSTEE{
				TrusteeForm:  windows.TRUSTEE_IS_SID,
				TrusteeType:  windows.TRUSTEE_IS_UNKNOWN,
				TrusteeValue: windows.TrusteeValueFromSID(sid),
			},
		})
	}

	newDACL, err := windows.ACLFromEntries(explicit, dacl)
	if err != nil {
		return fmt.Errorf("%w: build dacl: %w", errkind.ErrBackendIO, err)
	}

	newSD, err := windows.NewSecurityDescriptor()
	if err != nil {
		return fmt.Errorf("%w: new security descriptor: %w", errkind.ErrBackendIO, err)
	}
	if err := newSD.SetDACL(newDACL, true, false); err != nil {
		return fmt.Errorf("%w: set dacl: %w", errkind.ErrBackendIO, err)
	}

	if err := s.SetSecurity(windows.DACL_SECURITY_INFORMATION, newSD); err != nil {
		return fmt.Errorf("%w: apply service security: %w", errkind.ErrBackendIO, err)
	}
	return nil
}
