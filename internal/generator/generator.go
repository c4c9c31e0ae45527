package generator

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"template-builder/internal/codegen"
	"template-builder/internal/common/config"
	"template-builder/internal/common/errors"
	"template-builder/internal/common/logger"
	"template-builder/internal/models"
	"template-builder/internal/repository"
)

// Generation is everything one template produced.
type Generation struct {
	Template *models.IndustryTemplate
	Results  []models.ComponentGenerationResult
	Skipped  []models.SkippedComponent
}

// Options tune a ComponentGenerator. Zero values pick defaults.
type Options struct {
	Clock         Clock
	Locale        string
	NameCollision string
}

// ComponentGenerator walks a template's components in order and dispatches
// each one to its emitter.
type ComponentGenerator struct {
	reader    repository.Reader
	forms     *FormEmitter
	modules   *ModuleEmitter
	pages     *PageEmitter
	collision string
	log       logger.Logger
}

func NewComponentGenerator(reader repository.Reader, renderer *codegen.Renderer, opts Options, log logger.Logger) *ComponentGenerator {
	collision := opts.NameCollision
	if collision == "" {
		collision = config.CollisionSuffix
	}
	return &ComponentGenerator{
		reader:    reader,
		forms:     NewFormEmitter(renderer, opts.Clock, opts.Locale),
		modules:   NewModuleEmitter(renderer, opts.Clock),
		pages:     NewPageEmitter(renderer, opts.Clock),
		collision: collision,
		log:       logger.ForComponent(log, "component-generator"),
	}
}

// GenerateTemplateComponents returns the generated components of templateID
// in declaration order. Skipped components are logged and omitted.
func (g *ComponentGenerator) GenerateTemplateComponents(ctx context.Context, templateID string) ([]models.ComponentGenerationResult, error) {
	gen, err := g.GenerateTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return gen.Results, nil
}

// GenerateTemplate is GenerateTemplateComponents plus the skip list. Any
// error other than a skip discards all results.
func (g *ComponentGenerator) GenerateTemplate(ctx context.Context, templateID string) (*Generation, error) {
	tpl, err := g.reader.GetTemplateWithComponents(ctx, templateID)
	if err != nil {
		return nil, wrapRead(err, "template", templateID)
	}
	if tpl == nil {
		return nil, errors.NewNotFoundError("template", templateID)
	}
	return g.Generate(ctx, tpl)
}

// Generate runs the emitters over an already loaded template.
func (g *ComponentGenerator) Generate(ctx context.Context, tpl *models.IndustryTemplate) (*Generation, error) {
	log := g.log.With(map[string]interface{}{"templateId": tpl.ID})
	gen := &Generation{
		Template: tpl,
		Results:  make([]models.ComponentGenerationResult, 0, len(tpl.Components)),
		Skipped:  make([]models.SkippedComponent, 0),
	}
	names := newNameSet(g.collision, log)

	for i, comp := range tpl.Components {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelledError(err)
		}

		res, skip, err := g.generateOne(ctx, comp, names)
		if err != nil {
			log.Error("Component generation failed", map[string]interface{}{
				"position":      i,
				"componentId":   comp.ComponentID,
				"componentType": string(comp.ComponentType),
				"error":         err.Error(),
			})
			return nil, err
		}
		if skip != nil {
			log.Warn("Skipping component", map[string]interface{}{
				"componentId":   skip.ComponentID,
				"componentType": skip.ComponentType,
				"kind":          skip.Kind,
				"reason":        skip.Reason,
			})
			gen.Skipped = append(gen.Skipped, *skip)
			continue
		}

		res.SourceComponentID = comp.ComponentID
		gen.Results = append(gen.Results, res)
		log.Debug("Component generated", map[string]interface{}{
			"componentName": res.ComponentName,
			"componentPath": res.ComponentPath,
			"size":          res.PerformanceMetrics.ComponentSize,
		})
	}

	log.Info("Template generated", map[string]interface{}{
		"components": len(gen.Results),
		"skipped":    len(gen.Skipped),
	})
	return gen, nil
}

func (g *ComponentGenerator) generateOne(ctx context.Context, comp models.IndustryTemplateComponent, names *nameSet) (models.ComponentGenerationResult, *models.SkippedComponent, error) {
	var none models.ComponentGenerationResult

	switch comp.ComponentType {
	case models.ComponentTypeSchema:
		schema, err := g.reader.GetModelSchema(ctx, comp.ComponentID)
		if err != nil {
			return none, nil, wrapRead(err, "schema", comp.ComponentID)
		}
		if schema == nil {
			return none, nil, errors.NewNotFoundError("schema", comp.ComponentID)
		}
		name, err := names.claim(g.forms.Name(*schema), comp.ComponentID)
		if err != nil {
			return none, nil, err
		}
		res := g.forms.EmitNamed(*schema, comp.Configuration, name)
		if !res.Success {
			return none, nil, errors.NewGenerationFailedError(fmt.Errorf("rendering form %s failed", name))
		}
		return res, nil, nil

	case models.ComponentTypeModule:
		module, err := g.reader.GetModule(ctx, comp.ComponentID)
		if err != nil {
			return none, nil, wrapRead(err, "module", comp.ComponentID)
		}
		if module == nil {
			return none, nil, errors.NewNotFoundError("module", comp.ComponentID)
		}
		if module.ModuleType != models.ModuleTypeSearchInterface {
			return none, skipped(comp, errors.NewUnsupportedModuleTypeError(module.ID, string(module.ModuleType))), nil
		}
		name, err := names.claim(g.modules.Name(*module), comp.ComponentID)
		if err != nil {
			return none, nil, err
		}
		res, err := g.modules.EmitNamed(*module, name)
		if stderrors.Is(err, errors.ErrUnsupportedModuleType) {
			return none, skipped(comp, err), nil
		}
		return res, nil, err

	case models.ComponentTypePage:
		name, err := names.claim(g.pages.Name(comp), comp.ComponentID)
		if err != nil {
			return none, nil, err
		}
		res := g.pages.EmitNamed(comp, name)
		if !res.Success {
			return none, nil, errors.NewGenerationFailedError(fmt.Errorf("rendering page %s failed", name))
		}
		return res, nil, nil

	default:
		return none, skipped(comp, errors.NewUnknownComponentKindError(string(comp.ComponentType))), nil
	}
}

func skipped(comp models.IndustryTemplateComponent, err error) *models.SkippedComponent {
	return &models.SkippedComponent{
		ComponentID:   comp.ComponentID,
		ComponentType: string(comp.ComponentType),
		Kind:          string(errors.KindOf(err)),
		Reason:        err.Error(),
	}
}

func wrapRead(err error, resource, id string) error {
	if errors.KindOf(err) == errors.ErrCodeCancelled {
		return errors.NewCancelledError(err)
	}
	return errors.NewGenerationFailedError(fmt.Errorf("loading %s %s: %w", resource, id, err))
}

// nameSet applies the collision policy to derived component names.
type nameSet struct {
	policy string
	owners map[string]string
	log    logger.Logger
}

func newNameSet(policy string, log logger.Logger) *nameSet {
	return &nameSet{policy: policy, owners: make(map[string]string), log: log}
}

func (n *nameSet) claim(name, componentID string) (string, error) {
	owner, taken := n.owners[name]
	if !taken {
		n.owners[name] = componentID
		return name, nil
	}
	if n.policy == config.CollisionError {
		return "", errors.NewNameCollisionError(name, owner, componentID)
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if _, used := n.owners[candidate]; !used {
			n.owners[candidate] = componentID
			n.log.Warn("Component name collision resolved with suffix", map[string]interface{}{
				"name":        name,
				"renamedTo":   candidate,
				"componentId": componentID,
				"firstOwner":  owner,
			})
			return candidate, nil
		}
	}
}
