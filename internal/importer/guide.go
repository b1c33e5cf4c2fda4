package importer

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/phoenix"
)

// AnnotationGuide summarizes the annotation configs an operator has to
// create in the Arize UI before annotations can be attached. The importer
// writes it as YAML so it can be worked through as a checklist.
type AnnotationGuide struct {
	Annotations []AnnotationGuideEntry `yaml:"annotations"`
}

// AnnotationGuideEntry describes one annotation name found in the bundle.
type AnnotationGuideEntry struct {
	Name          string   `yaml:"name"`
	AnnotatorKind string   `yaml:"annotator_kind,omitempty"`
	Labels        []string `yaml:"labels,omitempty"`
	ScoreMin      *float64 `yaml:"score_min,omitempty"`
	ScoreMax      *float64 `yaml:"score_max,omitempty"`
	Count         int      `yaml:"count"`
}

// BuildAnnotationGuide aggregates annotations by name, collecting the label
// vocabulary and observed score range per annotation.
func BuildAnnotationGuide(annotations []phoenix.SpanAnnotation) AnnotationGuide {
	type agg struct {
		entry  AnnotationGuideEntry
		labels map[string]struct{}
	}
	byName := make(map[string]*agg)

	for _, a := range annotations {
		item, ok := byName[a.Name]
		if !ok {
			item = &agg{
				entry:  AnnotationGuideEntry{Name: a.Name, AnnotatorKind: a.AnnotatorKind},
				labels: make(map[string]struct{}),
			}
			byName[a.Name] = item
		}
		item.entry.Count++

		if a.Result.Label != "" {
			item.labels[a.Result.Label] = struct{}{}
		}
		if a.Result.Score != nil {
			score := *a.Result.Score
			if item.entry.ScoreMin == nil || score < *item.entry.ScoreMin {
				v := score
				item.entry.ScoreMin = &v
			}
			if item.entry.ScoreMax == nil || score > *item.entry.ScoreMax {
				v := score
				item.entry.ScoreMax = &v
			}
		}
	}

	guide := AnnotationGuide{}
	for _, item := range byName {
		for label := range item.labels {
			item.entry.Labels = append(item.entry.Labels, label)
		}
		sort.Strings(item.entry.Labels)
		guide.Annotations = append(guide.Annotations, item.entry)
	}
	sort.Slice(guide.Annotations, func(i, j int) bool {
		return guide.Annotations[i].Name < guide.Annotations[j].Name
	})
	return guide
}

// WriteGuide writes the guide as YAML to path.
func WriteGuide(path string, guide AnnotationGuide) error {
	data, err := yaml.Marshal(guide)
	if err != nil {
		return errors.Wrap(err, "failed to encode annotation guide")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
