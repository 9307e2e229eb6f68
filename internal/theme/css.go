package theme

import (
	"fmt"
	"strings"
	"sync"
)

var (
	stylesheetOnce sync.Once
	stylesheet     string
)

// Stylesheet returns the CSS for every theme plus the shared layout rules.
// Switching theme only swaps the Class on the page root.
func Stylesheet() string {
	stylesheetOnce.Do(func() {
		var b strings.Builder
		for _, t := range themes {
			b.WriteString(t.Variables())
		}
		b.WriteString(baseCSS)
		stylesheet = b.String()
	})
	return stylesheet
}

// Variables renders the theme as CSS custom properties scoped to Class.
func (t Theme) Variables() string {
	swatchRule := fmt.Sprintf(".swatch-%s{background:%s}\n", t.Name, t.Swatch())
	return fmt.Sprintf(`.%s{--bg:%s;--text:%s;--nav-bg:%s;--select-bg:%s;--sidebar-bg:%s;--sidebar-text:%s;--sidebar-hover-bg:%s;--sidebar-hover-text:%s;--accent:%s;--accent-hover:%s}
`, t.Class(), t.Bg, t.Text, t.NavBg, t.SelectBg, t.SidebarBg, t.SidebarText,
		t.SidebarHoverBg, t.SidebarHoverText, t.Accent, t.AccentHover) + swatchRule
}

const baseCSS = `*{box-sizing:border-box}
body{margin:0;font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif}
.app{min-height:100vh;background:var(--bg);color:var(--text);display:flex;flex-direction:column}
.navbar{display:flex;align-items:center;gap:1rem;padding:.75rem 1.5rem;background:var(--nav-bg)}
.navbar .brand{font-weight:700;flex:1}
.navbar button,.navbar form button{background:none;border:1px solid var(--accent);color:var(--text);border-radius:8px;padding:.4rem .8rem;cursor:pointer}
.shell{display:flex;flex:1}
.sidebar{width:220px;background:var(--sidebar-bg);color:var(--sidebar-text);padding:1rem 0}
.sidebar.collapsed{width:64px}
.sidebar.collapsed .label{display:none}
.sidebar a{display:block;padding:.75rem 1.25rem;color:var(--sidebar-text);text-decoration:none}
.sidebar a:hover,.sidebar a.active{background:var(--sidebar-hover-bg);color:var(--sidebar-hover-text)}
.content{flex:1;padding:2rem 4rem}
.theme-panel{position:fixed;top:0;right:0;width:260px;height:100vh;background:var(--sidebar-bg);padding:1.5rem;box-shadow:-2px 0 5px rgba(0,0,0,.3);display:flex;flex-direction:column;gap:2rem}
.theme-panel .close{align-self:flex-end}
.swatches{display:flex;gap:1rem;flex-wrap:wrap}
.swatch{width:32px;height:32px;border-radius:50%;border:2px solid var(--text);cursor:pointer}
.footer{text-align:center;padding:1rem;font-size:.9rem}
.card{background:var(--nav-bg);border-radius:12px;padding:2rem;max-width:400px;margin:4rem auto;text-align:center}
.card form{display:flex;flex-direction:column;gap:1rem}
input,select{padding:.75rem 1rem;border-radius:8px;border:1px solid var(--select-bg);background:var(--select-bg);color:var(--text);font-size:1rem;width:100%}
.btn{padding:.75rem 1rem;border-radius:8px;border:none;background:var(--accent);color:#fff;font-weight:600;cursor:pointer}
.btn:hover{background:var(--accent-hover)}
.btn:disabled{background:#ccc;cursor:not-allowed}
.btn.secondary{background:transparent;border:1px solid var(--accent);color:var(--text)}
.error{color:#ff6b6b;font-size:.9rem}
.success{color:var(--accent);font-weight:700}
.wizard{display:flex;gap:2rem}
.steps{list-style:none;padding:0;min-width:220px}
.steps li{padding:.5rem 0;opacity:.6}
.steps li.active{opacity:1;font-weight:700}
.steps li.complete{opacity:1}
.steps li a{color:inherit;cursor:pointer}
.step{flex:1;max-width:640px}
.field{display:flex;flex-direction:column;gap:.25rem;margin-bottom:1rem}
.field.invalid input,.field.invalid select{border-color:#ff6b6b}
.row{display:flex;gap:1rem}
.row .field{flex:1}
.actions{display:flex;gap:1rem;margin-top:1.5rem}
.review dl{display:grid;grid-template-columns:max-content 1fr;gap:.5rem 1rem}
.review dt{font-weight:600}
.banner{padding:1rem;border-radius:8px;margin-bottom:1rem;background:var(--select-bg)}
.banner.error{border:1px solid #ff6b6b}
.hidden{display:none}
`
