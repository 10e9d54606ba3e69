package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/iyhunko/wallart-storefront/internal/editor"
	"github.com/iyhunko/wallart-storefront/internal/form"
	"github.com/spf13/cobra"
)

var errMissingCredentials = errors.New("email and password are required (flags or CATALOG_EMAIL / CATALOG_PASSWORD)")

func (a *app) newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, password := a.v.GetString(emailKey), a.v.GetString(passwordKey)
			if email == "" || password == "" {
				return errMissingCredentials
			}

			c, err := a.newClient()
			if err != nil {
				return err
			}
			if err := c.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			if err := saveSession(a.v.GetString(sessionFileKey), c.Cookies()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().String(emailKey, "", "admin email")
	cmd.Flags().String(passwordKey, "", "admin password")
	_ = a.v.BindPFlag(emailKey, cmd.Flags().Lookup(emailKey))
	_ = a.v.BindPFlag(passwordKey, cmd.Flags().Lookup(passwordKey))
	return cmd
}

type addOptions struct {
	fromFile string
	fields   editor.Fields
	variants []string
	dryRun   bool
}

func (a *app) newAddCmd() *cobra.Command {
	opts := &addOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a product with its variants",
		Long: `Submit a product with its variants.

Variants are given as repeated --variant flags of comma-separated key=value pairs:

  catalogctl add --title "Mountain Sunset" --category Nature \
    --description "Golden light" --image-url https://x/img.jpg --tags "mountains, sunset" \
    --variant "size=small,price=24.99,dimensions=12x16,amazonLink=https://a/1"

A comma only separates pairs when a field name and "=" follow it, so links may contain commas.

--from-file loads a saved urlencoded form; flags given alongside override its product fields.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, fields, err := opts.build(cmd)
			if err != nil {
				return err
			}

			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), e.Encode(fields).Encode())
				return nil
			}

			c, err := a.newClient()
			if err != nil {
				return err
			}
			banner, err := e.Submit(cmd.Context(), fields, c)
			fmt.Fprintln(cmd.OutOrStdout(), banner)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.fromFile, "from-file", "", "urlencoded form file to start from")
	flags.StringVar(&opts.fields.Title, "title", "", "product title")
	flags.StringVar(&opts.fields.Description, "description", "", "product description")
	flags.StringVar(&opts.fields.Category, "category", "", "product category")
	flags.StringVar(&opts.fields.ImageURL, "image-url", "", "product image URL")
	flags.StringVar(&opts.fields.Tags, "tags", "", "comma-separated tags")
	flags.StringArrayVar(&opts.variants, "variant", nil, "variant as size=..,price=..,dimensions=..,amazonLink=.. (repeatable)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print the encoded form instead of submitting it")
	return cmd
}

// build assembles the editor from the optional form file, the product flags and the variant flags.
func (o *addOptions) build(cmd *cobra.Command) (*editor.Editor, editor.Fields, error) {
	e := editor.New()
	fields := editor.Fields{}

	if o.fromFile != "" {
		data, err := os.ReadFile(o.fromFile)
		if err != nil {
			return nil, fields, fmt.Errorf("failed to read form file: %w", err)
		}
		values, err := url.ParseQuery(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fields, fmt.Errorf("failed to parse form file: %w", err)
		}
		e, fields, err = editor.Decode(values)
		if err != nil {
			return nil, fields, err
		}
	}

	override := func(flag string, dst *string, value string) {
		if cmd.Flags().Changed(flag) {
			*dst = value
		}
	}
	override("title", &fields.Title, o.fields.Title)
	override("description", &fields.Description, o.fields.Description)
	override("category", &fields.Category, o.fields.Category)
	override("image-url", &fields.ImageURL, o.fields.ImageURL)
	override("tags", &fields.Tags, o.fields.Tags)

	for i, def := range o.variants {
		reuse := i == 0 && e.Len() == 1 && e.Drafts()[0].Variant == (form.Variant{})
		if err := addVariant(e, def, reuse); err != nil {
			return nil, fields, err
		}
	}
	return e, fields, nil
}

// addVariant fills a draft from def. The editor never holds zero drafts, so the first variant
// goes into the initial empty draft when reuseFirst is set.
func addVariant(e *editor.Editor, def string, reuseFirst bool) error {
	var id int64
	if reuseFirst {
		id = e.Drafts()[0].LocalID
	} else {
		id = e.AddVariant()
	}

	for _, pair := range splitVariantDef(def) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid variant %q: expected key=value pairs", def)
		}
		if err := e.EditField(id, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("invalid variant %q: %w (fields: %s)", def, err, strings.Join(form.VariantFields, ", "))
		}
	}
	return nil
}

// splitVariantDef splits def into key=value pairs. A comma only starts a new pair when it is
// followed by a variant field name and "=", so values such as amazonLink may contain commas.
func splitVariantDef(def string) []string {
	def = strings.TrimRight(strings.TrimSpace(def), ",")

	var pairs []string
	for _, segment := range strings.Split(def, ",") {
		trimmed := strings.TrimSpace(segment)
		if len(pairs) > 0 && !startsVariantPair(trimmed) {
			pairs[len(pairs)-1] += "," + segment
			continue
		}
		if trimmed != "" {
			pairs = append(pairs, trimmed)
		}
	}
	for i := range pairs {
		pairs[i] = strings.TrimSpace(pairs[i])
	}
	return pairs
}

func startsVariantPair(segment string) bool {
	key, _, ok := strings.Cut(segment, "=")
	if !ok {
		return false
	}
	key = strings.TrimSpace(key)
	for _, field := range form.VariantFields {
		if key == field {
			return true
		}
	}
	return false
}

func (a *app) newListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the newest products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			products, err := c.ListProducts(cmd.Context(), category)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tVARIANTS")
			for _, p := range products {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Category, len(p.Variants))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list this category")
	return cmd
}

func (a *app) newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with product counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			categories, err := c.Categories(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tPRODUCTS")
			for _, category := range categories {
				fmt.Fprintf(w, "%s\t%d\n", category.Name, category.ProductCount)
			}
			return w.Flush()
		},
	}
}
