package bot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrExtensionNotFound  = errors.New("extension not found")
	ErrExtensionNotLoaded = errors.New("extension not loaded")
)

// Command is a prefix command.
type Command struct {
	Name        string
	Description string
	OwnerOnly   bool
	Run         func(c *Context)
}

// SlashCommand is an application command and its handler.
type SlashCommand struct {
	Command *discordgo.ApplicationCommand
	Run     func(c *InteractionContext)
}

// ComponentHandler handles message components and modals whose custom ID
// starts with Prefix. It is given the rest of the custom ID.
type ComponentHandler struct {
	Prefix string
	Run    func(c *InteractionContext, id string)
}

// Extension is a named group of commands that can be reloaded at runtime.
type Extension struct {
	Name       string
	Commands   []*Command
	Slash      []*SlashCommand
	Components []*ComponentHandler
}

type ExtensionFactory func(b *Bot) *Extension

type Extensions struct {
	mu        sync.RWMutex
	factories map[string]ExtensionFactory
	order     []string
	loaded    map[string]*Extension
}

func NewExtensions() *Extensions {
	return &Extensions{
		factories: make(map[string]ExtensionFactory),
		loaded:    make(map[string]*Extension),
	}
}

// Register makes an extension available for loading.
func (e *Extensions) Register(name string, f ExtensionFactory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.factories[name]; !ok {
		e.order = append(e.order, name)
	}
	e.factories[name] = f
}

// Available lists registered extensions in registration order.
func (e *Extensions) Available() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.order...)
}

// Loaded lists the loaded extensions in registration order.
func (e *Extensions) Loaded() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var names []string
	for _, name := range e.order {
		if _, ok := e.loaded[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func build(b *Bot, name string, f ExtensionFactory) (ext *Extension, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extension %v panicked: %v", name, r)
		}
	}()
	ext = f(b)
	if ext == nil {
		return nil, fmt.Errorf("extension %v built nothing", name)
	}
	ext.Name = name
	return ext, nil
}

// Load builds and loads an extension, replacing it if it was loaded already.
// The previous version stays loaded if building fails.
func (e *Extensions) Load(b *Bot, name string) error {
	e.mu.RLock()
	f, ok := e.factories[name]
	e.mu.RUnlock()
	if !ok {
		return ErrExtensionNotFound
	}

	ext, err := build(b, name, f)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.conflicts(ext); err != nil {
		return err
	}
	e.loaded[name] = ext
	return nil
}

// Reload is Load, kept as its own name for the reload command.
func (e *Extensions) Reload(b *Bot, name string) error {
	return e.Load(b, name)
}

func (e *Extensions) Unload(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.factories[name]; !ok {
		return ErrExtensionNotFound
	}
	if _, ok := e.loaded[name]; !ok {
		return ErrExtensionNotLoaded
	}
	delete(e.loaded, name)
	return nil
}

func (e *Extensions) conflicts(ext *Extension) error {
	for name, other := range e.loaded {
		if name == ext.Name {
			continue
		}
		for _, c := range ext.Commands {
			for _, oc := range other.Commands {
				if strings.EqualFold(c.Name, oc.Name) {
					return fmt.Errorf("command %v is already provided by %v", c.Name, name)
				}
			}
		}
		for _, c := range ext.Slash {
			for _, oc := range other.Slash {
				if c.Command.Name == oc.Command.Name {
					return fmt.Errorf("application command %v is already provided by %v", c.Command.Name, name)
				}
			}
		}
	}
	return nil
}

// Command finds a loaded prefix command by name.
func (e *Extensions) Command(name string) *Command {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, ext := range e.loaded {
		for _, c := range ext.Commands {
			if strings.EqualFold(c.Name, name) {
				return c
			}
		}
	}
	return nil
}

// Slash finds a loaded application command by name.
func (e *Extensions) Slash(name string) *SlashCommand {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, ext := range e.loaded {
		for _, c := range ext.Slash {
			if c.Command.Name == name {
				return c
			}
		}
	}
	return nil
}

// Component finds the handler for a custom ID and returns the part after its prefix.
func (e *Extensions) Component(customID string) (*ComponentHandler, string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, ext := range e.loaded {
		for _, h := range ext.Components {
			if strings.HasPrefix(customID, h.Prefix) {
				return h, strings.TrimPrefix(customID, h.Prefix)
			}
		}
	}
	return nil, ""
}

// ApplicationCommands returns every loaded application command, sorted by name.
func (e *Extensions) ApplicationCommands() []*discordgo.ApplicationCommand {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var cmds []*discordgo.ApplicationCommand
	for _, ext := range e.loaded {
		for _, c := range ext.Slash {
			cmds = append(cmds, c.Command)
		}
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

func registerExtensions(e *Extensions) {
	e.Register("core", newCoreExtension)
	e.Register("owner", newOwnerExtension)
	e.Register("countryballs", newCountryballsExtension)
	e.Register("cards", newCardsExtension)
}
