package hydrx

// narrow derives the members one call applies. With no filter the plan is
// returned as is; otherwise a new slice in plan order: include first, then
// exclude removes keys from what is left.
func narrow(plan []member, include, exclude []string) []member {
	if len(include) == 0 && len(exclude) == 0 {
		return plan
	}

	included := keySet(include)
	excluded := keySet(exclude)

	out := make([]member, 0, len(plan))
	for _, m := range plan {
		if included != nil {
			if _, ok := included[m.key()]; !ok {
				continue
			}
		}
		if _, ok := excluded[m.key()]; ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

func keySet(keys []string) map[string]struct{} {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
