package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shouni/style-transfer-kit/pkg/domain"
	"github.com/shouni/style-transfer-kit/pkg/imgutil"
	"github.com/shouni/style-transfer-kit/pkg/stylize"
)

const helpText = `commands:
  content <path|url>   select the content image
  style <path|url>     select the style image
  stylize              send both images to the style transfer service
  wait                 wait for pending previews and requests
  status               show the current state
  preview <role>       show the preview of content or style
  save <path>          write the stylized image to a file
  help                 show this help
  quit                 exit`

// previewHead は preview コマンドで表示する data URI の先頭文字数です。
const previewHead = 64

// console は 1 行ずつのコマンドを Session の操作に変換します。
type console struct {
	ctx     context.Context
	session *stylize.Session

	mu  sync.Mutex
	out io.Writer
}

func newConsole(ctx context.Context, session *stylize.Session, out io.Writer) *console {
	return &console{ctx: ctx, session: session, out: out}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// handle は 1 行を処理します。終了する場合は true を返します。
func (c *console) handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		c.printf("%s\n", helpText)
	case "content", "style":
		c.selectImage(domain.Role(cmd), args)
	case "stylize":
		c.stylize()
	case "wait":
		c.session.Wait()
		c.printStatus()
	case "status":
		c.printStatus()
	case "preview":
		c.printPreview(args)
	case "save":
		c.save(args)
	default:
		c.printf("unknown command: %s (type help)\n", cmd)
	}
	return false
}

func (c *console) selectImage(role domain.Role, args []string) {
	if len(args) == 0 {
		c.printf("usage: %s <path|url>\n", role)
		return
	}
	if err := c.session.SelectSource(c.ctx, role, args...); err != nil {
		c.printf("error: %v\n", err)
		return
	}
	c.printf("%s: %s\n", role, c.session.State().Files[role])
}

func (c *console) stylize() {
	ch, err := c.session.Stylize(c.ctx)
	if err != nil {
		c.printf("error: %s\n", domain.UserMessage(err))
		return
	}
	c.printf("stylizing... (request %s)\n", c.session.State().RequestID)

	go func() {
		st, ok := <-ch
		if !ok {
			return
		}
		c.printf("%s\n", describeRequest(st))
	}()
}

func (c *console) printStatus() {
	st := c.session.State()
	for _, role := range domain.Roles() {
		name, selected := st.Files[role]
		preview := "-"
		if p, ok := st.Preview(role); ok {
			preview = fmt.Sprintf("%d chars", len(p))
		} else if selected {
			preview = "pending"
		}
		if !selected {
			name = "(none)"
		}
		c.printf("%-8s %s [preview: %s]\n", string(role)+":", name, preview)
	}
	c.printf("request: %s\n", describeRequest(st.Request))
}

func (c *console) printPreview(args []string) {
	if len(args) != 1 {
		c.printf("usage: preview <content|style>\n")
		return
	}
	role, err := domain.ParseRole(args[0])
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	p, ok := c.session.State().Preview(role)
	if !ok {
		c.printf("%s: no preview yet\n", role)
		return
	}
	head := p
	if len(head) > previewHead {
		head = head[:previewHead] + "..."
	}
	c.printf("%s: %s (%d chars)\n", role, head, len(p))
}

func (c *console) save(args []string) {
	if len(args) != 1 {
		c.printf("usage: save <path>\n")
		return
	}
	path, err := saveStylized(c.session.State().Request, args[0])
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	c.printf("saved: %s\n", path)
}

// saveStylized は変換結果の data URI をデコードしてファイルに書き出します。
// 拡張子がなければ MIME タイプから補います。
func saveStylized(st domain.RequestState, path string) (string, error) {
	if st.StylizedImage == nil {
		return "", errors.New("no stylized image yet")
	}
	mimeType, data, err := imgutil.DecodeDataURI(*st.StylizedImage)
	if err != nil {
		return "", err
	}
	if filepath.Ext(path) == "" {
		path += imgutil.ExtensionFor(mimeType)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func describeRequest(st domain.RequestState) string {
	switch {
	case st.IsLoading:
		return "loading"
	case st.ErrorMessage != nil:
		return "error: " + *st.ErrorMessage
	case st.StylizedImage != nil:
		return fmt.Sprintf("done (%d chars)", len(*st.StylizedImage))
	}
	return "idle"
}
