package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"willstech-admin/internal/github"
	"willstech-admin/internal/siteconfig"
)

func (e *Editor) UpdateHero(ctx context.Context, hero siteconfig.Hero) (*CommitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commit(ctx, "hero", func(doc *siteconfig.Document) error {
		if !siteconfig.SectionChanged(doc.Hero, hero) {
			return ErrNoChanges
		}
		doc.Hero = hero
		return nil
	})
}

func (e *Editor) UpdateContent(ctx context.Context, content siteconfig.Content) (*CommitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commit(ctx, "content", func(doc *siteconfig.Document) error {
		if !siteconfig.SectionChanged(doc.Content, content) {
			return ErrNoChanges
		}
		doc.Content = content
		return nil
	})
}

func (e *Editor) UpdateSocial(ctx context.Context, social siteconfig.Social) (*CommitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commit(ctx, "social", func(doc *siteconfig.Document) error {
		if !siteconfig.SectionChanged(doc.Social, social) {
			return ErrNoChanges
		}
		doc.Social = social
		return nil
	})
}

// AddProduct assigns a fresh id and dateAdded, then commits.
func (e *Editor) AddProduct(ctx context.Context, p siteconfig.Product) (*siteconfig.Product, *CommitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var added siteconfig.Product
	res, err := e.commit(ctx, "products", func(doc *siteconfig.Document) error {
		next := p.Clone()
		next.ID = siteconfig.NextProductID(e.now(), doc.Products)
		stamp := e.now()
		next.DateAdded = &stamp
		next.DateUpdated = nil
		if err := siteconfig.ValidateProduct(&next); err != nil {
			return err
		}
		doc.Products = append(doc.Products, next)
		doc.Normalize()
		added = doc.Products[len(doc.Products)-1].Clone()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &added, res, nil
}

// UpdateProduct overlays patch on the stored product. Only the keys present
// in patch change.
func (e *Editor) UpdateProduct(ctx context.Context, id siteconfig.ProductID, patch json.RawMessage) (*siteconfig.Product, *CommitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var updated siteconfig.Product
	res, err := e.commit(ctx, "products", func(doc *siteconfig.Document) error {
		idx := doc.FindProduct(id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		old := doc.Products[idx]
		next, err := siteconfig.ApplyPatch(old, patch)
		if err != nil {
			return err
		}
		if !siteconfig.ProductChanged(old, next) {
			return ErrNoChanges
		}
		if err := siteconfig.ValidateProduct(&next); err != nil {
			return err
		}
		stamp := e.now()
		next.DateUpdated = &stamp
		doc.Products[idx] = next
		updated = next.Clone()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &updated, res, nil
}

// ToggleProductVisibility flips a product between active and hidden.
func (e *Editor) ToggleProductVisibility(ctx context.Context, id siteconfig.ProductID) (*siteconfig.Product, *CommitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var toggled siteconfig.Product
	res, err := e.commit(ctx, "products", func(doc *siteconfig.Document) error {
		idx := doc.FindProduct(id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		p := &doc.Products[idx]
		if p.Hidden() {
			p.Status = siteconfig.StatusActive
		} else {
			p.Status = siteconfig.StatusHidden
		}
		stamp := e.now()
		p.DateUpdated = &stamp
		toggled = p.Clone()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &toggled, res, nil
}

func (e *Editor) DeleteProduct(ctx context.Context, id siteconfig.ProductID) (*siteconfig.Product, *CommitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var removed siteconfig.Product
	res, err := e.commit(ctx, "products", func(doc *siteconfig.Document) error {
		idx := doc.FindProduct(id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		removed = doc.Products[idx].Clone()
		doc.Products = append(doc.Products[:idx], doc.Products[idx+1:]...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &removed, res, nil
}

// SetAllProductStatus hides or shows every product in one commit and reports
// how many products changed.
func (e *Editor) SetAllProductStatus(ctx context.Context, status string) (int, *CommitResult, error) {
	if status != siteconfig.StatusActive && status != siteconfig.StatusHidden {
		return 0, nil, fmt.Errorf("%w: unknown status %q", siteconfig.ErrInvalid, status)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var changed int
	res, err := e.commit(ctx, "products", func(doc *siteconfig.Document) error {
		changed = 0
		stamp := e.now()
		for i := range doc.Products {
			if doc.Products[i].Status == status {
				continue
			}
			doc.Products[i].Status = status
			doc.Products[i].DateUpdated = &stamp
			changed++
		}
		if changed == 0 {
			return ErrNoChanges
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return changed, res, nil
}

// ImportProducts merges an export envelope into the product list.
func (e *Editor) ImportProducts(ctx context.Context, data []byte) (siteconfig.MergeResult, *CommitResult, error) {
	env, err := siteconfig.DecodeImport(data)
	if err != nil {
		return siteconfig.MergeResult{}, nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var merged siteconfig.MergeResult
	res, err := e.commit(ctx, "products", func(doc *siteconfig.Document) error {
		products, mr, err := siteconfig.MergeProducts(doc.Products, env.Products, e.now())
		if err != nil {
			return err
		}
		doc.Products = products
		if err := doc.Validate(); err != nil {
			return err
		}
		merged = mr
		return nil
	})
	if err != nil {
		return siteconfig.MergeResult{}, nil, err
	}
	return merged, res, nil
}

func (e *Editor) ExportProducts(ctx context.Context) (siteconfig.ExportEnvelope, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return siteconfig.ExportEnvelope{}, err
	}
	products := make([]siteconfig.Product, len(e.doc.Products))
	for i, p := range e.doc.Products {
		products[i] = p.Clone()
	}
	return siteconfig.NewExport(products, e.now()), nil
}

// BackupFileName is the download name for a backup taken at t. The date is
// the UTC calendar day.
func BackupFileName(t time.Time) string {
	return "willstech-backup-" + t.UTC().Format("2006-01-02") + ".json"
}

func ExportFileName(t time.Time) string {
	return "willstech-products-export-" + t.UTC().Format("2006-01-02") + ".json"
}

// Backup encodes the working document, including unsaved restored data.
func (e *Editor) Backup(ctx context.Context) ([]byte, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, "", err
	}
	body, err := e.doc.Encode()
	if err != nil {
		return nil, "", err
	}
	return body, BackupFileName(e.now()), nil
}

// Restore replaces the working document without committing. The change
// reaches GitHub on the next Deploy.
func (e *Editor) Restore(ctx context.Context, data []byte) error {
	doc, err := siteconfig.Decode(data)
	if err != nil {
		return fmt.Errorf("%w: %v", siteconfig.ErrInvalid, err)
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}
	e.doc = doc
	e.dirty = siteconfig.SectionChanged(*e.saved, *doc)
	e.log.Infow("Working document restored from backup", "products", len(doc.Products), "dirty", e.dirty)
	e.notify("document_restored", map[string]interface{}{"products": len(doc.Products)})
	return nil
}

type DeployResult struct {
	Access *github.Access `json:"access"`
	Commit *CommitResult  `json:"commit"`
}

// Deploy checks repository access, then commits the whole working document.
func (e *Editor) Deploy(ctx context.Context) (*DeployResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend == nil {
		return nil, ErrNotConfigured
	}

	access, err := e.backend.VerifyAccess(ctx)
	if err != nil {
		return nil, err
	}
	if !access.BranchExists {
		e.log.Warnw("Branch not found, GitHub will reject the write", "branch", e.backend.Target().Branch)
	}

	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	pending := e.doc.Clone()
	res, err := e.commit(ctx, sectionDeploy, func(doc *siteconfig.Document) error {
		*doc = *pending.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DeployResult{Access: access, Commit: res}, nil
}
