package cli

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage stored documents",
	Long:    `Add, list, view and delete stored documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Upload a file",
	Long: `Reads a file, tags and summarises it, stores it and indexes it for search.

The media type is taken from --mime, then the file extension, then the
file contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentAdd,
}

var documentDeleteCmd = &cobra.Command{
	Use:     "delete [doc-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a document",
	Args:    cobra.ExactArgs(1),
	RunE:    runDocumentDelete,
}

var (
	documentJSON    bool
	documentMime    string
	documentName    string
	documentContent bool
)

func init() {
	documentListCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	documentGetCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	documentGetCmd.Flags().BoolVar(&documentContent, "content", false, "print the content only")
	documentAddCmd.Flags().StringVarP(&documentMime, "mime", "m", "", "media type of the file")
	documentAddCmd.Flags().StringVar(&documentName, "name", "", "filename to store (default base name of path)")
	documentAddCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	docs, err := svc.Documents.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentJSON {
		if docs == nil {
			docs = []domain.Document{}
		}
		return printJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s  %s\n", docs[i].ID, docs[i].Filename)
		cmd.Printf("    Type: %s  Created: %s\n", docs[i].MimeType, docs[i].CreatedAt.Format("2006-01-02 15:04:05"))
		if len(docs[i].Tags) > 0 {
			cmd.Printf("    Tags: %s\n", strings.Join(docs[i].Tags, ", "))
		}
		if docs[i].IndexPending {
			cmd.Println("    Index pending")
		}
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	doc, err := svc.Documents.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	switch {
	case documentContent:
		cmd.Print(doc.Content)
		if !strings.HasSuffix(doc.Content, "\n") {
			cmd.Println()
		}
		return nil
	case documentJSON:
		return printJSON(cmd, doc)
	}

	printDocument(cmd, doc)
	return nil
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	name := documentName
	if name == "" {
		name = filepath.Base(path)
	}

	mimeType := documentMime
	if mimeType == "" {
		mimeType = detectMimeType(name, data)
	}
	if !domain.IsTextual(mimeType) && !utf8.Valid(data) {
		return fmt.Errorf("%s is binary (%s); only text content can be stored", name, mimeType)
	}

	doc, err := svc.Documents.Create(cmd.Context(), driving.CreateDocumentInput{
		Filename: name,
		Content:  string(data),
		MimeType: mimeType,
	})
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	if documentJSON {
		return printJSON(cmd, doc)
	}

	cmd.Printf("Added %s (%s)\n", doc.ID, doc.Filename)
	if len(doc.Tags) > 0 {
		cmd.Printf("Tags: %s\n", strings.Join(doc.Tags, ", "))
	}
	if doc.IndexPending {
		cmd.Println("Warning: indexing failed; the document will be indexed by the next reconcile run.")
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	if err := svc.Documents.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}

// detectMimeType prefers the extension and falls back to sniffing.
func detectMimeType(name string, data []byte) string {
	if mt := mime.TypeByExtension(filepath.Ext(name)); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
		return mt
	}
	base, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return base
}

func printDocument(cmd *cobra.Command, doc *domain.Document) {
	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Filename: %s\n", doc.Filename)
	cmd.Printf("  Type:     %s\n", doc.MimeType)
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Tags:     %s\n", strings.Join(doc.Tags, ", "))
	if summary := doc.Summary(); summary != "" {
		cmd.Printf("  Summary:  %s\n", summary)
	}
	if doc.IndexPending {
		cmd.Println("  Index:    pending")
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
