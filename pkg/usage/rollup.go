package usage

// SumTagSizes sums the sizes of every tag's layers. Layers shared between tags
// are counted once per tag. Unavailable repositories have no entry.
//
// Fed with a LayerMap it yields logical sizes, fed with the PrimaryLayers of
// that map it yields disk sizes.
func SumTagSizes(layers LayerMap, sizes SizeTable) map[string]map[string]int64 {
	res := make(map[string]map[string]int64, len(layers))
	for repoName, repo := range layers {
		if repo.Unavailable {
			continue
		}
		tags := make(map[string]int64, len(repo.Tags))
		for tag, tagLayers := range repo.Tags {
			var sum int64
			for _, d := range tagLayers {
				sum += sizes[d]
			}
			tags[tag] = sum
		}
		res[repoName] = tags
	}
	return res
}

// SumRepositorySizes folds tag sizes into one size per repository of the layer map.
// Repositories without tag sizes are unavailable, never zero.
func SumRepositorySizes(layers LayerMap, tagSizes map[string]map[string]int64) map[string]Size {
	res := make(map[string]Size, len(layers))
	for repoName := range layers {
		tags, ok := tagSizes[repoName]
		if !ok {
			res[repoName] = Unavailable()
			continue
		}
		var sum int64
		for _, s := range tags {
			sum += s
		}
		res[repoName] = Known(sum)
	}
	return res
}

// SumTotal adds up the known repository sizes.
func SumTotal(repoSizes map[string]Size) int64 {
	var total int64
	for _, s := range repoSizes {
		if n, ok := s.Bytes(); ok {
			total += n
		}
	}
	return total
}
