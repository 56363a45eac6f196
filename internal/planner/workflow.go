package planner

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"nutrition-planner/internal/extract"
	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/logger"
	"nutrition-planner/internal/nutrition"
)

//go:embed doctor_prompt.md
var doctorPrompt string

//go:embed chef_prompt.md
var chefPrompt string

//go:embed budget_prompt.md
var budgetPrompt string

//go:embed correction_prompt.md
var correctionPrompt string

//go:embed manager_prompt.md
var managerPrompt string

var (
	doctorTmpl     = template.Must(template.New("doctor").Parse(doctorPrompt))
	chefTmpl       = template.Must(template.New("chef").Parse(chefPrompt))
	budgetTmpl     = template.Must(template.New("budget").Parse(budgetPrompt))
	correctionTmpl = template.Must(template.New("correction").Parse(correctionPrompt))
	managerTmpl    = template.Must(template.New("manager").Parse(managerPrompt))
)

const workflowTemperature float32 = 0.3

// Run executes the full plan workflow. A generation failure in any stage
// aborts the whole run; only the directive analysis and the calorie loop
// degrade gracefully. The returned metas cover every agent call made,
// including the ones before a failed stage.
func (p *Planner) Run(ctx context.Context, req Request) (*Result, []llm.AgentMeta, error) {
	var metas []llm.AgentMeta

	directive, meta := p.analyzer.Analyze(ctx, req.Feedback, req.PreviousCost, req.DurationDays)
	metas = append(metas, meta)

	tdee := nutrition.EnergyTarget(req.Profile.WeightKg, req.Profile.HeightCm, req.Profile.Age, req.Profile.Gender, req.Profile.Activity)
	protein := nutrition.ProteinTarget(req.Profile.WeightKg)
	target := nutrition.AdjustForGoal(tdee, req.Goal)

	logger.Info("plan workflow started",
		"email", req.Profile.Email,
		"duration_days", req.DurationDays,
		"target_calories", target,
		"cost_adjustment", string(directive.CostAdjustment))

	guidance := directiveGuidance(directive, req.PreviousCost, req.DurationDays)

	doctorOut, meta, err := p.doctorStage(ctx, req, target)
	metas = append(metas, meta)
	if err != nil {
		return nil, metas, err
	}

	chefOut, meta, err := p.chefStage(ctx, req, target, guidance)
	metas = append(metas, meta)
	if err != nil {
		return nil, metas, err
	}

	planText, meta, err := p.budgetStage(ctx, req, directive, target, guidance, chefOut)
	metas = append(metas, meta)
	if err != nil {
		return nil, metas, err
	}

	planText, rounds, loopMetas := p.correctCalories(ctx, planText, target)
	metas = append(metas, loopMetas...)

	budgetCost := extract.Cost(planText)

	managerOut, meta, err := p.managerStage(ctx, req, doctorOut, planText, budgetCost, target, protein)
	metas = append(metas, meta)
	if err != nil {
		return nil, metas, err
	}

	finalCost := extract.CostPreferring(managerOut, planText)

	logger.Info("plan workflow finished",
		"email", req.Profile.Email,
		"cost", finalCost,
		"correction_rounds", rounds)

	return &Result{
		PlanText:         managerOut,
		Cost:             finalCost,
		TargetCalories:   target,
		ProteinGrams:     protein,
		Directive:        directive,
		CorrectionRounds: rounds,
	}, metas, nil
}

func (p *Planner) doctorStage(ctx context.Context, req Request, target int) (string, llm.AgentMeta, error) {
	data := struct {
		Age            int
		WeightKg       float64
		GoalWeight     float64
		Goal           string
		Activity       nutrition.ActivityLevel
		TargetCalories int
	}{req.Profile.Age, req.Profile.WeightKg, req.Profile.GoalWeight, req.Goal, req.Profile.Activity, target}

	content, err := render(doctorTmpl, data)
	if err != nil {
		return "", llm.AgentMeta{AgentName: "Doctor"}, err
	}
	resp, meta, err := p.inv.run(ctx, "Doctor Agent", "You are a strict Clinical Doctor.", content, llm.ChatOptions{Temperature: workflowTemperature})
	meta.AgentName = "Doctor"
	return resp.Content, meta, err
}

func (p *Planner) chefStage(ctx context.Context, req Request, target int, guidance string) (string, llm.AgentMeta, error) {
	data := struct {
		Cuisine      string
		DietType     nutrition.DietType
		Allergies    string
		MealsPerDay  int
		DurationDays int
		Guidance     string
	}{req.Profile.Cuisine, req.Profile.DietType, req.Profile.Allergies, req.MealsPerDay, req.DurationDays, guidance}

	content, err := render(chefTmpl, data)
	if err != nil {
		return "", llm.AgentMeta{AgentName: "Chef"}, err
	}
	persona := fmt.Sprintf("You are an Indian Home Chef. You hate boring food, you are creative, and you avoid unhealthy choices like fried, junk, oily and processed foods. Meals must be complete and portioned so each day reaches the target of %dkcal.", target)
	resp, meta, err := p.inv.run(ctx, "Chef Agent", persona, content, llm.ChatOptions{Temperature: workflowTemperature})
	meta.AgentName = "Chef"
	return resp.Content, meta, err
}

func (p *Planner) budgetStage(ctx context.Context, req Request, directive RequestDirective, target int, guidance, menuConcept string) (string, llm.AgentMeta, error) {
	costInstruction := "Calculate the total cost accurately from every ingredient and quantity, then double-check the arithmetic."
	persona := fmt.Sprintf(`You are an Intelligent Budget & Nutrition Manager.
Follow the request analysis guidance in the task: honour the cost adjustment direction, respect the items to avoid and include, and keep every day at the target of %d kcal.`, target)

	if directive.CostTarget != nil {
		t := *directive.CostTarget
		costInstruction = fmt.Sprintf("TARGET COST: ₹%.0f. Your final cost MUST land within ₹50 of this figure. If your calculation does not match, revise quantities and recalculate until it does.", t)
		persona = fmt.Sprintf(`You are a PRECISE Budget Manager with a MANDATORY COST TARGET.
CRITICAL MISSION: the plan must cost ₹%.0f total (about ₹%.2f per day).
Your ### TOTAL_COST: ### line MUST be within ₹50 of ₹%.0f.
Every ingredient and quantity choice must serve this budget while keeping each day at %d kcal.
This is a requirement, not a suggestion.`, t, t/float64(req.DurationDays), t, target)
	}

	data := struct {
		DurationDays    int
		MenuConcept     string
		Guidance        string
		CostInstruction string
	}{req.DurationDays, menuConcept, guidance, costInstruction}

	content, err := render(budgetTmpl, data)
	if err != nil {
		return "", llm.AgentMeta{AgentName: "BudgetPlanner"}, err
	}
	resp, meta, err := p.inv.run(ctx, "Planner & Budget Agent", persona, content, llm.ChatOptions{Temperature: workflowTemperature})
	meta.AgentName = "BudgetPlanner"
	return resp.Content, meta, err
}

// correctCalories runs the bounded convergence loop. Non-convergence is not
// an error: the last produced text is accepted as best effort, and a failed
// correction call keeps the previous text.
func (p *Planner) correctCalories(ctx context.Context, planText string, target int) (string, int, []llm.AgentMeta) {
	var metas []llm.AgentMeta
	rounds := 0

	for rounds < p.maxCorrections {
		extracted := extract.Calories(planText)
		gap := target - extracted
		if abs(gap) <= p.tolerance {
			return planText, rounds, metas
		}

		data := struct {
			ExtractedCalories int
			TargetCalories    int
			Tolerance         int
			PlanText          string
		}{extracted, target, p.tolerance, planText}

		content, err := render(correctionTmpl, data)
		if err != nil {
			break
		}
		resp, meta, err := p.inv.run(ctx, "Calorie Auditor", "You are a meticulous nutrition auditor. You close calorie gaps by adjusting portions, never by redesigning the plan.", content, llm.ChatOptions{Temperature: workflowTemperature})
		meta.AgentName = "CalorieAuditor"
		metas = append(metas, meta)
		rounds++
		if err != nil {
			logger.Warn("calorie correction call failed", "round", rounds, "error", err)
			break
		}
		planText = resp.Content
	}

	return planText, rounds, metas
}

func (p *Planner) managerStage(ctx context.Context, req Request, doctorOut, planText, cost string, target int, protein float64) (string, llm.AgentMeta, error) {
	data := struct {
		DoctorOutput   string
		PlanText       string
		Cost           string
		Objective      string
		WeightKg       float64
		GoalWeight     float64
		TargetCalories int
		ProteinGrams   float64
	}{doctorOut, planText, cost, nutrition.ObjectiveFor(req.Profile.WeightKg, req.Profile.GoalWeight), req.Profile.WeightKg, req.Profile.GoalWeight, target, protein}

	content, err := render(managerTmpl, data)
	if err != nil {
		return "", llm.AgentMeta{AgentName: "Manager"}, err
	}
	resp, meta, err := p.inv.run(ctx, "Manager Agent", "You are a Helpful Assistant.", content, llm.ChatOptions{Temperature: workflowTemperature})
	meta.AgentName = "Manager"
	return resp.Content, meta, err
}

// directiveGuidance renders the non-empty directive fields as the guidance
// blocks shared by the chef and budget prompts.
func directiveGuidance(d RequestDirective, previousCost *float64, duration int) string {
	var b strings.Builder

	if d.Reasoning != "" {
		fmt.Fprintf(&b, "\n***REQUEST ANALYSIS SUMMARY:***\n%s\n", d.Reasoning)
	}

	switch {
	case d.CostTarget != nil:
		t := *d.CostTarget
		fmt.Fprintf(&b, "\n***MANDATORY COST TARGET:***\n- Target cost: ₹%.0f total for %d days (₹%.2f per day)\n- This is a STRICT requirement. Split the daily budget across the meals.\n- Use budget-friendly ingredients. Avoid premium items if needed to hit the target.\n", t, duration, t/float64(duration))
	case d.CostAdjustment == AdjustDecrease && previousCost != nil:
		fmt.Fprintf(&b, "\n***COST REDUCTION REQUIRED:***\n- Previous cost: ₹%.0f\n- Target: reduce to approximately ₹%.0f or less (20-30%% reduction)\n- Use budget-friendly ingredients: dal, eggs, seasonal vegetables, basic staples.\n", *previousCost, *previousCost*0.75)
	case d.CostAdjustment == AdjustIncrease && previousCost != nil:
		fmt.Fprintf(&b, "\n***COST INCREASE ALLOWED:***\n- Previous cost: ₹%.0f\n- You can increase to ₹%.0f or more. Premium ingredients and more variety are welcome.\n", *previousCost, *previousCost*1.2)
	case previousCost != nil:
		fmt.Fprintf(&b, "\n***PREVIOUS PLAN REFERENCE:***\n- Previous cost: ₹%.0f for %d days. Stay in a similar range unless told otherwise.\n", *previousCost, duration)
	}

	if len(d.ItemsToAvoid) > 0 {
		fmt.Fprintf(&b, "\n***ITEMS TO AVOID:***\n- Do NOT include: %s\n- Use healthy, nutritionally equivalent alternatives.\n", strings.Join(d.ItemsToAvoid, ", "))
	}
	if len(d.ItemsToInclude) > 0 {
		fmt.Fprintf(&b, "\n***ITEMS TO INCLUDE:***\n- Prioritize: %s\n", strings.Join(d.ItemsToInclude, ", "))
	}
	if len(d.Preferences) > 0 {
		fmt.Fprintf(&b, "\n***PREFERENCES:***\n- %s\n", strings.Join(d.Preferences, ", "))
	}
	if len(d.Constraints) > 0 {
		fmt.Fprintf(&b, "\n***CONSTRAINTS:***\n- %s\n", strings.Join(d.Constraints, ", "))
	}

	return b.String()
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
