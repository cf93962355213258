package application

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/sheetload/internal/core"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

func buildMenuTree(m *Model) *Menu {
	root := &Menu{
		Title: "Main Menu",
		Items: []MenuItem{
			{Label: "Load file ->", Submenu: loadFileMenu(m)},
			{Label: "Select table ->", Submenu: loadTableMenu(m)},
			{Label: "Toggle preview", Action: func() tea.Cmd {
				return func() tea.Msg { return togglePreviewMsg{} }
			}},
			{Label: "Process data", Action: m.startRun},
			{Label: "Clear", Action: m.clear},
			{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

// loadFileMenu lists the loadable files under the uploads directory.
// A directory that cannot be read yields an error menu.
func loadFileMenu(m *Model) *Menu {
	title := "Load file (" + m.dir + ")"

	files, err := ListUploads(m.dir)
	if err != nil {
		return &Menu{
			Title: title,
			Items: []MenuItem{
				{Label: "Error: " + err.Error()},
				{Label: "Back"},
			},
		}
	}

	items := make([]MenuItem, 0, len(files)+2)
	for _, name := range files {
		path := filepath.Join(m.dir, name)
		items = append(items, MenuItem{Label: name, Action: func() tea.Cmd { return m.loadFile(path) }})
	}
	if len(files) == 0 {
		items = append(items, MenuItem{Label: "No CSV or Excel files found"})
	}
	items = append(items,
		MenuItem{Label: "Rescan", Action: func() tea.Cmd {
			return func() tea.Msg { return rescanMsg{} }
		}},
		MenuItem{Label: "Back"},
	)

	return &Menu{Title: title, Items: items}
}

// loadTableMenu groups the catalog the same way the web selector does.
func loadTableMenu(m *Model) *Menu {
	menu := &Menu{Title: "Select table"}

	for _, group := range core.Groups() {
		sub := &Menu{Title: groupTitle(group)}
		for _, def := range core.ByGroup(group) {
			key := def.Info.Key
			label := key
			if def.Info.Label != "" && def.Info.Label != key {
				label = fmt.Sprintf("%s (%s)", key, def.Info.Label)
			}
			sub.Items = append(sub.Items, MenuItem{Label: label, Action: func() tea.Cmd { return m.selectTable(key) }})
		}
		sub.Items = append(sub.Items, MenuItem{Label: "Back"})
		menu.Items = append(menu.Items, MenuItem{Label: sub.Title + " ->", Submenu: sub})
	}

	menu.Items = append(menu.Items,
		MenuItem{Label: "None", Action: func() tea.Cmd { return m.selectTable("") }},
		MenuItem{Label: "Back"},
	)
	return menu
}

func groupTitle(group string) string {
	switch group {
	case "dimension":
		return "Dimensions"
	case "fact":
		return "Facts"
	case "":
		return "Other"
	default:
		return group
	}
}
