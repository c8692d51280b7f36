package agent

import (
	"fmt"

	"pullconf/internal/api"
)

func (a *applier) applyAptPackage(pkg *api.AptPackage) (api.Action, error) {
	p := pkg.Parameters

	if err := requireCommands(a.system, dpkgQueryCommand, aptGetCommand); err != nil {
		return api.ActionFailed, err
	}

	// dpkg-query exits nonzero for packages dpkg has never seen, so an
	// error here means the package is not installed.
	installed, _ := a.system.Execute(dpkgQueryCommand, "-W", "-f", "${VERSION}", p.Name.String())

	if p.Ensure.IsAbsent() {
		if installed == "" {
			return api.ActionUnchanged, nil
		}
		args := []string{"remove"}
		if p.Ensure == api.PackagePurged {
			args = append(args, "--purge")
		}
		args = append(args, p.Name.String(), "--quiet", "--quiet", "--yes")
		if _, err := a.system.Execute(aptGetCommand, args...); err != nil {
			return api.ActionFailed, fmt.Errorf("removing package `%s`: %w", p.Name, err)
		}
		return api.ActionDeleted, nil
	}

	specifier := p.Name.String()
	if p.Version != nil {
		specifier = fmt.Sprintf("%s=%s", p.Name, *p.Version)
	}

	switch {
	case installed == "":
		if _, err := a.system.Execute(aptGetCommand, "install", specifier, "--quiet", "--quiet", "--yes"); err != nil {
			return api.ActionFailed, fmt.Errorf("installing package `%s`: %w", p.Name, err)
		}
		return api.ActionCreated, nil

	case p.Version != nil && installed != p.Version.String():
		if _, err := a.system.Execute(aptGetCommand, "install", specifier, "--quiet", "--quiet", "--yes"); err != nil {
			return api.ActionFailed, fmt.Errorf("installing package `%s`: %w", p.Name, err)
		}
		return api.ActionChanged, nil

	default:
		return api.ActionUnchanged, nil
	}
}
