package drive

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RandomSuffix returns 3 random bytes hex-encoded, e.g. "9f03a1".
func RandomSuffix() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating name suffix: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// PropagatedRoot is the copy created for one owner.
type PropagatedRoot struct {
	OwnerID  string
	FolderID int64
	Name     string
	Renamed  bool // the template name was taken and a suffix was added
}

// PropagationResult lists the owners whose copies were committed, in the
// order they were processed.
type PropagationResult struct {
	TemplateID int64
	Roots      []PropagatedRoot
}

// Committed returns the owners that received a copy.
func (r *PropagationResult) Committed() []string {
	owners := make([]string, len(r.Roots))
	for i, root := range r.Roots {
		owners[i] = root.OwnerID
	}
	return owners
}

// PropagateTemplate copies the folder structure rooted at templateID to the
// top level of every owner in ownerIDs. Files are never copied.
//
// Each owner is handled in its own transaction, in order. On the first
// failure processing stops: the returned result lists the owners already
// committed and the error names the owner that failed, so the caller can
// retry the remainder.
func (s *DriveService) PropagateTemplate(ctx context.Context, templateID int64, ownerIDs []string) (*PropagationResult, error) {
	for _, owner := range ownerIDs {
		if err := ValidateOwnerID(owner); err != nil {
			return nil, err
		}
	}

	template, err := s.database.GetFolder(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("getting template folder: %w", err)
	}

	result := &PropagationResult{TemplateID: templateID}
	for _, owner := range ownerIDs {
		root, err := s.database.CopySubtree(ctx, templateID, owner, s.opts.Suffix)
		if err != nil {
			s.logger.Error("template propagation stopped",
				"template_id", templateID, "owner_id", owner, "committed", len(result.Roots), "error", err)
			return result, fmt.Errorf("propagating template %d to owner %s: %w", templateID, owner, err)
		}

		result.Roots = append(result.Roots, PropagatedRoot{
			OwnerID:  owner,
			FolderID: root.ID,
			Name:     root.Name,
			Renamed:  root.Name != template.Name,
		})
		s.logger.Info("template copied", "template_id", templateID, "owner_id", owner, "folder_id", root.ID, "name", root.Name)
	}

	return result, nil
}
