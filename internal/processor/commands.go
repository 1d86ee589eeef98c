package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"codeberg.org/snonux/lanote/internal"
	"codeberg.org/snonux/lanote/internal/batch"
	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/generator"
	"codeberg.org/snonux/lanote/internal/notes"
)

// Add stores one card from [term, definition], or imports the batch file.
func (p *Processor) Add(ctx context.Context, args []string) error {
	var items []notes.Item

	if p.flags.BatchFile != "" {
		entries, err := batch.ReadBatchFile(p.flags.BatchFile)
		if err != nil {
			return err
		}
		items, err = batch.Resolve(ctx, entries, p.parser, p.cfg.Language)
		if err != nil {
			return p.explain(err)
		}
	} else {
		if len(args) != 2 {
			return fmt.Errorf("add needs a term and a definition")
		}
		items = []notes.Item{{
			Term:       strings.TrimSpace(args[0]),
			Definition: strings.TrimSpace(args[1]),
			Category:   p.flags.Category,
		}}
	}

	return p.save(ctx, items)
}

// Parse extracts vocabulary from the arguments, or from stdin for "-".
func (p *Processor) Parse(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(p.in)
		if err != nil {
			return fmt.Errorf("failed to read notes: %w", err)
		}
		text = string(data)
	}

	items, err := p.parser.Parse(ctx, text, p.cfg.Language)
	if err != nil {
		return p.explain(err)
	}
	if len(items) == 0 {
		fmt.Fprintf(p.out, "No %s vocabulary or translations found. Try adding more context.\n", p.cfg.Language)
		return nil
	}

	p.printItems(items)
	if !p.flags.Save {
		return nil
	}
	return p.save(ctx, items)
}

// Sync pulls new vocabulary from a published document. With --status it
// only reports when the document last produced new words.
func (p *Processor) Sync(ctx context.Context, source string) error {
	if p.flags.Status {
		return p.printSyncStatus(ctx, notes.NormalizeURL(source))
	}

	existing, err := p.store.Terms(ctx, p.cfg.Language)
	if err != nil {
		return err
	}

	res, err := p.syncer.Sync(ctx, source, p.cfg.Language, existing)
	if err != nil {
		if errors.Is(err, notes.ErrAuthRequired) {
			return fmt.Errorf("could not access %s: use \"File > Share > Publish to web\" and sync the published link: %w", res.Source, err)
		}
		return p.explain(err)
	}

	if len(res.Items) == 0 {
		fmt.Fprintf(p.out, "Sync complete! No new vocabulary words found (%d already known).\n", res.Duplicates)
		return p.printSyncStatus(ctx, res.Source)
	}

	p.printItems(res.Items)
	if !p.flags.Save {
		fmt.Fprintf(p.out, "%d new words; run again with --save to add them.\n", len(res.Items))
	} else if err := p.save(ctx, res.Items); err != nil {
		return err
	}
	return p.printSyncStatus(ctx, res.Source)
}

func (p *Processor) printSyncStatus(ctx context.Context, source string) error {
	t, ok, err := p.store.LastSynced(ctx, source)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(p.out, "%s: Never synced\n", source)
		return nil
	}
	fmt.Fprintf(p.out, "%s: Synced %s\n", source, t.Local().Format("2006-01-02 15:04"))
	return nil
}

// List prints the cards of the current language.
func (p *Processor) List(ctx context.Context) error {
	cards, err := p.store.List(ctx, storeFilter(p.cfg.Language, p.flags.Category))
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		fmt.Fprintf(p.out, "No %s cards yet.\n", p.cfg.Language)
		return nil
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTERM\tDEFINITION\tCATEGORY\tSTATUS\tDETAILS")
	for _, c := range cards {
		done := len(card.AllFields) - len(card.Missing(c.Details, card.AllFields))
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\n",
			internal.ShortID(c.ID), c.Term, c.Definition, c.Category, c.Study.Status, done, len(card.AllFields))
	}
	return w.Flush()
}

// Enrich generates the missing details of a card.
func (p *Processor) Enrich(ctx context.Context, ref string) error {
	c, err := p.findCard(ctx, ref)
	if err != nil {
		return err
	}

	fields := card.AllFields
	if p.flags.Light {
		fields = card.LightweightFields
	}

	d := p.openView(c, fields)
	defer d.Close()

	start := p.now()
	details, err := d.Enrich(ctx)
	if err != nil {
		return p.explain(err)
	}

	fmt.Fprintf(p.out, "%s (%s)\n", c.Term, c.Definition)
	for _, name := range fields {
		fmt.Fprintf(p.out, "  %-12s %s\n", name, details.State(name))
	}
	if text, ok := details.Explanation.Value(); ok {
		fmt.Fprintf(p.out, "\n%s\n", text)
	}
	p.logger.Debug("enrich command finished", "card", c.ID, "took", time.Since(start))
	return nil
}

// Play plays the pronunciation of a card, generating it first if needed.
func (p *Processor) Play(ctx context.Context, ref string) error {
	c, err := p.findCard(ctx, ref)
	if err != nil {
		return err
	}

	d := p.openView(c, card.FieldSet{card.FieldAudio})
	defer d.Close()

	if !d.Complete() {
		fmt.Fprintf(p.out, "Generating pronunciation of %s...\n", c.Term)
		if _, err := d.Enrich(ctx); err != nil {
			return p.explain(err)
		}
	}
	return d.PlaySpeech(ctx)
}

// Record records the learner saying a card's term and replays it.
func (p *Processor) Record(ctx context.Context, ref string) error {
	c, err := p.findCard(ctx, ref)
	if err != nil {
		return err
	}

	d := p.openView(c, card.FieldSet{card.FieldAudio})
	defer d.Close()

	if err := d.StartRecording(ctx); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Say %q now (%s)...\n", c.Term, p.flags.Duration)

	select {
	case <-time.After(p.flags.Duration):
	case <-ctx.Done():
	}

	elapsed, _ := d.Recording()
	blob, err := d.StopRecording()
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Recorded %s, %d bytes (%s).\n", elapsed.Round(10*time.Millisecond), len(blob.Data), blob.MIMEType)

	if p.flags.OutputDir != "" {
		path, err := saveRecording(p.flags.OutputDir, c.Term, blob.Extension(), blob.Data)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.out, "Saved to %s\n", path)
	}

	if p.flags.NoReplay || ctx.Err() != nil {
		return nil
	}
	return d.PlayRecording(ctx)
}

// Review records a study answer for a card.
func (p *Processor) Review(ctx context.Context, ref string) error {
	c, err := p.findCard(ctx, ref)
	if err != nil {
		return err
	}

	c.Review(!p.flags.Wrong, p.now())
	if err := p.store.UpdateStudy(ctx, c); err != nil {
		return err
	}
	if p.flags.Wrong {
		if err := p.store.MarkError(ctx, c.ID); err != nil {
			return err
		}
	}

	fmt.Fprintf(p.out, "%s: %s after %d reviews\n", c.Term, c.Study.Status, c.Study.ReviewCount)
	return nil
}

// Delete removes a card from the library.
func (p *Processor) Delete(ctx context.Context, ref string) error {
	c, err := p.findCard(ctx, ref)
	if err != nil {
		return err
	}
	if err := p.store.Delete(ctx, c.ID); err != nil {
		return err
	}
	p.logger.Debug("card deleted", "card", c.ID, "term", c.Term)
	fmt.Fprintf(p.out, "Deleted %s (%s)\n", c.Term, c.Definition)
	return nil
}

// save stores items whose term is not yet in the library.
func (p *Processor) save(ctx context.Context, items []notes.Item) error {
	existing, err := p.store.Terms(ctx, p.cfg.Language)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, t := range existing {
		known[t] = true
	}

	var cards []card.VocabCard
	skipped := 0
	for _, it := range items {
		if it.Term == "" || known[it.Term] {
			skipped++
			continue
		}
		known[it.Term] = true
		cards = append(cards, it.Card(p.cfg.Language))
	}

	if err := p.store.Create(ctx, cards...); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Added %d cards", len(cards))
	if skipped > 0 {
		fmt.Fprintf(p.out, " (%d already in the library)", skipped)
	}
	fmt.Fprintln(p.out)
	return nil
}

func (p *Processor) printItems(items []notes.Item) {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TERM\tDEFINITION\tCATEGORY")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", it.Term, it.Definition, it.Category)
	}
	w.Flush()
}

// explain adds a hint to precondition failures.
func (p *Processor) explain(err error) error {
	var pe *generator.PreconditionError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w (set GEMINI_API_KEY or OPENAI_API_KEY, or configure the key in ~/.lanote.yaml)", err)
	}
	return err
}

func saveRecording(dir, term, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, internal.SanitizeFilename(term)+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save recording: %w", err)
	}
	return path, nil
}
