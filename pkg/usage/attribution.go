package usage

// Attribute assigns every digest of the size table to exactly one owning tag.
//
// Candidates of a digest are the tags of available repositories that list it,
// enumerated by repository name and then tag name. The first candidate owns the
// digest until a candidate whose tag has strictly fewer layers shows up, so shared
// base layers end up credited to their leanest consumer. On equal layer counts the
// earlier candidate keeps the digest.
//
// A digest that only unavailable repositories reference gets no owner.
func Attribute(layers LayerMap, sizes SizeTable) map[Digest]Owner {
	owners := make(map[Digest]Owner, len(sizes))
	ownerLayerCount := make(map[Digest]int, len(sizes))
	for _, repoName := range layers.SortedRepositories() {
		repo := layers[repoName]
		if repo.Unavailable {
			continue
		}
		for _, tag := range repo.SortedTags() {
			tagLayers := repo.Tags[tag]
			for _, d := range tagLayers {
				if _, sized := sizes[d]; !sized {
					continue
				}
				count, owned := ownerLayerCount[d]
				if owned && len(tagLayers) >= count {
					continue
				}
				owners[d] = Owner{Repository: repoName, Tag: tag}
				ownerLayerCount[d] = len(tagLayers)
			}
		}
	}
	return owners
}

// PrimaryLayers filters every tag's layer list down to the digests it owns, each
// listed once even if the manifest repeats it. Unavailable repositories stay unavailable.
func PrimaryLayers(layers LayerMap, owners map[Digest]Owner) LayerMap {
	res := make(LayerMap, len(layers))
	for repoName, repo := range layers {
		if repo.Unavailable {
			res[repoName] = UnavailableRepository()
			continue
		}
		tags := make(map[string]TagLayers, len(repo.Tags))
		for tag, tagLayers := range repo.Tags {
			self := Owner{Repository: repoName, Tag: tag}
			primary := TagLayers{}
			listed := make(map[Digest]bool)
			for _, d := range tagLayers {
				if owner, ok := owners[d]; ok && owner == self && !listed[d] {
					listed[d] = true
					primary = append(primary, d)
				}
			}
			tags[tag] = primary
		}
		res[repoName] = AvailableRepository(tags)
	}
	return res
}
