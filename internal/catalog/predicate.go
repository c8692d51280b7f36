package catalog

import "pullconf/internal/api"

// forbiddenDependency is the per-kind predicate over explicitly declared
// edges. It rejects pairs whose apply order can never be satisfied, most
// prominently a resource depending on something it contains or produces
// itself. Implicit edges are wired by the compiler and bypass the predicate.
func forbiddenDependency(source, target api.Resource) bool {
	switch {
	case source.Directory != nil:
		d := source.Directory.Parameters
		switch {
		case target.Directory != nil:
			path := target.Directory.Parameters.Path
			return path == d.Path || d.Path.IsAncestorOf(path)
		case target.File != nil:
			return d.Path.IsAncestorOf(target.File.Parameters.Path)
		case target.Symlink != nil:
			p := target.Symlink.Parameters
			return d.Path.IsAncestorOf(p.Path) || p.Target == d.Path || d.Path.IsAncestorOf(p.Target)
		case target.Host != nil:
			t := target.Host.Parameters.Target
			return t == d.Path || d.Path.IsAncestorOf(t)
		case target.ResolvConf != nil:
			t := target.ResolvConf.Parameters.Target
			return t == d.Path || d.Path.IsAncestorOf(t)
		}

	case source.File != nil:
		f := source.File.Parameters
		switch {
		case target.File != nil:
			return target.File.Parameters.Path == f.Path
		case target.Host != nil:
			return target.Host.Parameters.Target == f.Path
		case target.ResolvConf != nil:
			return target.ResolvConf.Parameters.Target == f.Path
		case target.Symlink != nil:
			return target.Symlink.Parameters.Target == f.Path
		}

	case source.Symlink != nil:
		s := source.Symlink.Parameters
		switch {
		case target.Symlink != nil:
			return target.Symlink.Parameters.Path == s.Path
		case target.Directory != nil:
			return target.Directory.Parameters.Path == s.Target
		case target.File != nil:
			return target.File.Parameters.Path == s.Target
		case target.Host != nil:
			return target.Host.Parameters.Target == s.Path
		case target.ResolvConf != nil:
			return target.ResolvConf.Parameters.Target == s.Path
		}

	case source.Host != nil:
		return target.Host != nil && target.Host.Parameters.IPAddress == source.Host.Parameters.IPAddress

	case source.Group != nil:
		g := source.Group.Parameters
		if target.Group != nil {
			return target.Group.Parameters.Name == g.Name
		}
		if target.User != nil {
			return target.User.Parameters.Group == g.Name
		}

	case source.User != nil:
		u := source.User.Parameters
		if target.User != nil {
			return target.User.Parameters.Name == u.Name
		}
		if target.Directory != nil {
			return target.Directory.Parameters.Path == u.Home
		}
		if target.Group != nil {
			for _, name := range u.Groups {
				if name == target.Group.Parameters.Name {
					return true
				}
			}
		}

	case source.ResolvConf != nil:
		return target.ResolvConf != nil

	case source.AptPreference != nil:
		return target.AptPreference != nil && target.AptPreference.Parameters.Name == source.AptPreference.Parameters.Name

	case source.CronJob != nil:
		return target.CronJob != nil && target.CronJob.Parameters.Name == source.CronJob.Parameters.Name
	}
	return false
}
